// Package httpapi exposes the server over REST plus a WebSocket change feed.
package httpapi

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/offnote/offnote/internal/server/notes"
	"github.com/offnote/offnote/internal/server/realtime"
	"github.com/offnote/offnote/internal/server/users"
	"github.com/offnote/offnote/pkg/logging"
)

type Server struct {
	userService *users.Service
	noteService *notes.Service
	hub         *realtime.Hub
	jwtSecret   []byte
	log         logging.Logger
}

func NewServer(userService *users.Service, noteService *notes.Service, hub *realtime.Hub, jwtSecret []byte, log logging.Logger) *Server {
	return &Server{
		userService: userService,
		noteService: noteService,
		hub:         hub,
		jwtSecret:   jwtSecret,
		log:         log.With("component", "httpapi"),
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)
	auth.Post("/refresh", s.handleRefresh)

	notesAPI := api.Group("/notes")

	// The stream authenticates via query parameter; browsers cannot set an
	// Authorization header on a WebSocket dial.
	notesAPI.Use("/stream", s.requireStreamAuth)
	notesAPI.Get("/stream", websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(localsUserID).(string)
		s.hub.Serve(userID, conn)
	}))

	notesAPI.Use(s.requireAuth)
	notesAPI.Get("/", s.handleListNotes)
	notesAPI.Put("/:id", s.handleUpsertNote)
	notesAPI.Delete("/:id", s.handleDeleteNote)

	return app
}
