package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/offnote/offnote/internal/server/auth"
	"github.com/offnote/offnote/internal/server/shared"
)

const localsUserID = "userID"

// requireAuth validates the bearer token and stores the user id in locals.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	userID, err := s.authenticate(token)
	if err != nil {
		return err
	}

	c.Locals(localsUserID, userID)
	return c.Next()
}

// requireStreamAuth authenticates the WebSocket upgrade via the access_token
// query parameter and rejects plain HTTP requests.
func (s *Server) requireStreamAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("access_token")
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
	}

	userID, err := s.authenticate(token)
	if err != nil {
		return err
	}

	c.Locals(localsUserID, userID)
	return c.Next()
}

func (s *Server) authenticate(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return "", fiber.NewError(fiber.StatusUnauthorized, "token expired")
		}
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return userID, nil
}
