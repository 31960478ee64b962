package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

type channelRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// CreateChannel adds a channel to a group room the caller owns.
func (s *Server) CreateChannel(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	var req channelRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	channel, err := s.channelService.Create(c.UserContext(), auth, roomID, service.ChannelParams{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(channel)
}

// GetRoomChannels lists a room's channels for its members.
func (s *Server) GetRoomChannels(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	channels, err := s.channelService.ListByRoom(c.UserContext(), auth, roomID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(channels)
}

// GetChannel returns a channel the caller's membership reaches.
func (s *Server) GetChannel(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	channel, err := s.channelService.Get(c.UserContext(), auth, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(channel)
}

// UpdateChannel renames or recategorizes a channel. Room owner only.
func (s *Server) UpdateChannel(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	var req channelRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	channel, err := s.channelService.Update(c.UserContext(), auth, id, service.ChannelParams{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(channel)
}

// RemoveChannel deletes a channel and its messages. Room owner only.
func (s *Server) RemoveChannel(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.channelService.Remove(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Channel removed"})
}
