package server

import (
	"log/slog"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Register creates an unverified account. The verification token is logged
// rather than returned; delivery is the mailer's job once one exists.
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if token, err := s.userService.EmailVerificationToken(user.ID); err == nil {
		middleware.Logger.InfoContext(c.UserContext(), "verification token issued",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("token", token))
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login verifies credentials and returns a session token. A device logging
// in again from the same IP and user agent gets its existing token back.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Identifier == "" || req.Password == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Identifier and password are required"))
	}

	ctx := c.UserContext()
	user, err := s.sessionService.CheckPassword(ctx, req.Identifier, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	token, err := s.sessionService.CreateSession(ctx, req.Identifier, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail marks the account behind a verification token as verified.
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Token == "" {
		return models.RespondWithError(c, models.NewValidationError("Verification token is required"))
	}

	if err := s.userService.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email verified"})
}

// GetSessions lists the caller's sessions with tokens redacted.
func (s *Server) GetSessions(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	sessions, err := s.sessionService.GetSessions(c.UserContext(), auth)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(sessions)
}

// Logout deletes the session the request was authenticated with.
func (s *Server) Logout(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.sessionService.DeleteCurrentSession(c.UserContext(), auth); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// LogoutEverywhere deletes all of the caller's sessions.
func (s *Server) LogoutEverywhere(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.sessionService.DeleteAllSessions(c.UserContext(), auth); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out everywhere"})
}

// DeleteSession deletes one of the caller's sessions by ID.
func (s *Server) DeleteSession(c *fiber.Ctx) error {
	auth, err := authCtx(c)
	if err != nil {
		return handlerErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return handlerErr(c, err)
	}
	if err := s.sessionService.DeleteSession(c.UserContext(), auth, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session deleted"})
}
