package server

import (
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFriendships lists friendships involving the caller, pending and
// accepted alike.
func (s *Server) GetFriendships(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	friendships, err := s.friendshipService.List(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(friendships)
}

type createFriendshipRequest struct {
	Username string `json:"username"`
}

// CreateFriendship sends a friend request to the named user.
func (s *Server) CreateFriendship(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	var req createFriendshipRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" {
		return models.RespondWithError(c, models.NewValidationError("Username is required"))
	}
	friendship, err := s.friendshipService.Create(c.UserContext(), auth, req.Username)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// AcceptFriendship accepts a pending request. Only the invited party may.
func (s *Server) AcceptFriendship(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	friendship, err := s.friendshipService.Accept(c.UserContext(), auth, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(friendship)
}

// RejectFriendship declines a pending request, removing it.
func (s *Server) RejectFriendship(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.friendshipService.Reject(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friendship rejected"})
}

// RemoveFriendship removes an existing friendship. Either party may.
func (s *Server) RemoveFriendship(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.friendshipService.Remove(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friendship removed"})
}
