package server

import (
	"encoding/json"

	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateInvite mints an invite code for a group room the caller owns.
func (s *Server) CreateInvite(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	invite, err := s.inviteService.Create(c.UserContext(), auth, roomID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

// RemoveInvite revokes an invite code. Room owner only.
func (s *Server) RemoveInvite(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.inviteService.Remove(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invite removed"})
}

// GetNotes lists the private notes the caller keeps about other users.
func (s *Server) GetNotes(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	notes, err := s.noteService.List(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(notes)
}

type noteRequest struct {
	Text string `json:"text"`
}

// UpsertNote saves the caller's note about another user, replacing any
// previous one.
func (s *Server) UpsertNote(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	subjectID, err := parseID(c, "userId")
	if err != nil {
		return handlerErr(c, err)
	}
	var req noteRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	note, err := s.noteService.Upsert(c.UserContext(), auth, subjectID, req.Text)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(note)
}

// GetSettings returns the caller's settings document.
func (s *Server) GetSettings(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	settings, err := s.settingsService.Get(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(settings)
}

// UpdateSettings replaces the caller's settings document. The body is an
// opaque JSON blob owned by the client; only well-formedness is checked.
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	settings, err := s.settingsService.Update(c.UserContext(), auth, json.RawMessage(c.Body()))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(settings)
}
