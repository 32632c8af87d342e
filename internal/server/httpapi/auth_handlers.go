package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/offnote/offnote/internal/server/shared"
	"github.com/offnote/offnote/internal/server/users"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	pair, err := s.userService.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrorValidation):
			return fiber.NewError(fiber.StatusBadRequest, "invalid email or password")
		case errors.Is(err, shared.ErrorAlreadyExists):
			return fiber.NewError(fiber.StatusConflict, "account already exists")
		default:
			return fiber.ErrInternalServerError
		}
	}

	return c.Status(fiber.StatusCreated).JSON(tokenPair(pair))
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	pair, err := s.userService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrorUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(tokenPair(pair))
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	pair, err := s.userService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrorUnauthorized), errors.Is(err, shared.ErrRefreshTokenExpired):
			return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
		default:
			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(tokenPair(pair))
}

func tokenPair(p *users.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}
