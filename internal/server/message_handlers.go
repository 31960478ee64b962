package server

import (
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

type messageRequest struct {
	Content string `json:"content"`
}

// PublishMessage posts a message to a channel the caller can reach. In a DM
// this also requires the friendship behind it to still be accepted.
func (s *Server) PublishMessage(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	channelID, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	message, err := s.messageService.Publish(c.UserContext(), auth, channelID, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetChannelMessages returns a page of a channel's messages, newest first.
func (s *Server) GetChannelMessages(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	channelID, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	limit, offset := parsePagination(c, 50)
	messages, err := s.messageService.ListChannel(c.UserContext(), auth, channelID, limit, offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(messages)
}

// GetMessage returns a single message the caller's membership reaches.
func (s *Server) GetMessage(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	message, err := s.messageService.Get(c.UserContext(), auth, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(message)
}

// EditMessage replaces a message's content. Sender only.
func (s *Server) EditMessage(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	message, err := s.messageService.Edit(c.UserContext(), auth, id, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(message)
}

// RemoveMessage deletes a message. The sender may always; the room owner
// may moderate messages in a group room.
func (s *Server) RemoveMessage(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.messageService.Remove(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message removed"})
}
