package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetRooms lists the caller's group rooms.
func (s *Server) GetRooms(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	rooms, err := s.roomService.ListRooms(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(rooms)
}

type createRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoom creates a group room owned by the caller, with a default
// channel.
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	room, err := s.roomService.CreateRoom(c.UserContext(), auth, req.Name)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// GetRoom returns a room the caller belongs to.
func (s *Server) GetRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	room, err := s.roomService.GetRoom(c.UserContext(), auth, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(room)
}

type updateRoomRequest struct {
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

// UpdateRoom renames a group room or changes its picture. Owner only.
func (s *Server) UpdateRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	var req updateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	room, err := s.roomService.UpdateRoom(c.UserContext(), auth, id, service.RoomParams{
		Name:       req.Name,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(room)
}

// GetRoomMembers lists the public profiles of a room's members.
func (s *Server) GetRoomMembers(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	members, err := s.roomService.GetRoomMembers(c.UserContext(), auth, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(members)
}

// RemoveRoom deletes a room. Group rooms are owner-only; a DM goes away for
// both parties when either member removes it.
func (s *Server) RemoveRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.roomService.RemoveRoom(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Room removed"})
}

// JoinRoom adds the caller to the room behind an invite code.
func (s *Server) JoinRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	code := c.Params("code")
	if code == "" {
		return models.RespondWithError(c, models.NewValidationError("Invite code is required"))
	}
	room, err := s.roomService.JoinRoom(c.UserContext(), auth, code)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(room)
}

// LeaveRoom removes the caller from a group room. Owners cannot leave.
func (s *Server) LeaveRoom(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.roomService.LeaveRoom(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left room"})
}

// GetDMs lists the caller's direct-message rooms.
func (s *Server) GetDMs(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	dms, err := s.roomService.ListDMs(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(dms)
}

type createDMRequest struct {
	UserID uint `json:"userId"`
}

// CreateDM opens a direct-message room with an accepted friend.
func (s *Server) CreateDM(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	var req createDMRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, models.NewValidationError("User id is required"))
	}
	room, err := s.roomService.CreateDM(c.UserContext(), auth, req.UserID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}
