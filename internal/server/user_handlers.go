package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyAccount returns the caller's full account record.
func (s *Server) GetMyAccount(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	user, err := s.userService.GetSelf(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(user)
}

type updateAccountRequest struct {
	DisplayName *string `json:"displayName"`
	About       *string `json:"about"`
	ProfilePic  *string `json:"profilePic"`
	Password    *string `json:"password"`
}

// UpdateMyAccount applies profile changes. Absent fields are left alone, so
// the request carries pointers rather than zero values.
func (s *Server) UpdateMyAccount(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.Update(c.UserContext(), auth, service.UpdateParams{
		DisplayName: req.DisplayName,
		About:       req.About,
		ProfilePic:  req.ProfilePic,
		Password:    req.Password,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAccount deletes the caller's account and everything it owns.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.userService.Delete(c.UserContext(), auth); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted"})
}

type reorderRoomsRequest struct {
	Rooms []uint `json:"rooms"`
}

// ReorderRooms saves the caller's sidebar ordering. The payload must list
// every group room the caller belongs to exactly once.
func (s *Server) ReorderRooms(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	var req reorderRoomsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.ReorderRooms(c.UserContext(), auth, req.Rooms); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"rooms": req.Rooms})
}

type publicUserResponse struct {
	models.PublicView
	Online bool `json:"online"`
}

// GetUser returns another user's public profile with their live-socket
// status.
func (s *Server) GetUser(c *fiber.Ctx) error {
	if _, err := authCtx(c); err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(publicUserResponse{PublicView: user, Online: s.hub.IsOnline(id)})
}
