package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/offnote/offnote/internal/server/notes"
	"github.com/offnote/offnote/internal/server/shared"
)

func (s *Server) handleListNotes(c *fiber.Ctx) error {
	userID := c.Locals(localsUserID).(string)

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "bad since parameter")
		}
		since = &t
	}

	list, err := s.noteService.List(c.Context(), userID, since)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	out := make([]notes.WireNote, 0, len(list))
	for _, n := range list {
		out = append(out, notes.ToWire(n))
	}
	return c.JSON(out)
}

func (s *Server) handleUpsertNote(c *fiber.Ctx) error {
	userID := c.Locals(localsUserID).(string)

	var w notes.WireNote
	if err := c.BodyParser(&w); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	n, err := notes.FromWire(w)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "bad timestamps")
	}
	// The path, not the body, names the resource.
	n.ID = c.Params("id")

	stored, err := s.noteService.Upsert(c.Context(), userID, &n)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrorValidation):
			return fiber.NewError(fiber.StatusBadRequest, "invalid note")
		case errors.Is(err, shared.ErrorForbidden):
			return fiber.NewError(fiber.StatusForbidden, "not your note")
		default:
			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(notes.ToWire(*stored))
}

func (s *Server) handleDeleteNote(c *fiber.Ctx) error {
	userID := c.Locals(localsUserID).(string)

	if err := s.noteService.Delete(c.Context(), userID, c.Params("id")); err != nil {
		if errors.Is(err, shared.ErrorValidation) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid note id")
		}
		return fiber.ErrInternalServerError
	}

	return c.SendStatus(fiber.StatusNoContent)
}
