package service

import (
	"context"

	"pulse/internal/auth"
	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
)

// SessionService issues, deduplicates, validates, and revokes session
// tokens. It is the sole source of truth for "who is this request or
// connection".
type SessionService struct {
	userRepo repository.UserRepository
	signer   *auth.TokenSigner
	emitter  Emitter
}

// NewSessionService returns a new SessionService.
func NewSessionService(userRepo repository.UserRepository, signer *auth.TokenSigner, emitter Emitter) *SessionService {
	return &SessionService{
		userRepo: userRepo,
		signer:   signer,
		emitter:  emitter,
	}
}

// CheckPassword resolves an identifier (username or email) and verifies the
// password against the stored digest. Lookup misses and bad passwords both
// surface as InvalidCredential so callers cannot probe for accounts.
func (s *SessionService) CheckPassword(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewInvalidCredentialError("Invalid username or password")
		}
		return nil, err
	}
	if !auth.VerifyPassword(password, user.PasswordSalt, user.PasswordDigest) {
		return nil, models.NewInvalidCredentialError("Invalid username or password")
	}
	return user, nil
}

// CreateSession logs a device in. A session already bound to the same
// (ip, userAgent) is reused and its token returned unchanged; otherwise a
// new token is minted and a new session appended. This is the only place a
// token ever leaves the store.
func (s *SessionService) CreateSession(ctx context.Context, identifier, ip, userAgent string) (string, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return "", err
	}

	existing, err := s.userRepo.FindSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Token, nil
	}

	token, err := s.signer.Sign(user.ID, user.Username)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	session := &models.Session{
		UserID:    user.ID,
		IP:        ip,
		UserAgent: userAgent,
		Token:     token,
	}
	if err := s.userRepo.AddSession(ctx, session); err != nil {
		return "", err
	}

	s.emitSessionList(ctx, user.ID)
	return token, nil
}

// CheckSession verifies a token's signature and resolves it to a live
// session. Both failure modes are non-fatal InvalidCredential outcomes;
// this runs on every authenticated request and at websocket handshake.
func (s *SessionService) CheckSession(ctx context.Context, token string) (models.AuthContext, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return models.AuthContext{}, models.NewInvalidCredentialError("Invalid session token")
	}

	session, err := s.userRepo.GetSessionByToken(ctx, token)
	if err != nil {
		return models.AuthContext{}, models.NewInvalidCredentialError("Session not found")
	}
	if session.UserID != claims.UserID {
		return models.AuthContext{}, models.NewInvalidCredentialError("Session not found")
	}

	return models.AuthContext{UserID: session.UserID, SessionID: session.ID}, nil
}

// GetSessions returns the redacted views of the user's sessions.
func (s *SessionService) GetSessions(ctx context.Context, authCtx models.AuthContext) ([]models.SessionView, error) {
	sessions, err := s.userRepo.ListSessions(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}
	return models.RedactSessions(sessions), nil
}

// DeleteCurrentSession logs the requesting device out.
func (s *SessionService) DeleteCurrentSession(ctx context.Context, authCtx models.AuthContext) error {
	if err := s.userRepo.DeleteSession(ctx, authCtx.SessionID); err != nil {
		return err
	}
	s.emitSessionList(ctx, authCtx.UserID)
	return nil
}

// DeleteSession revokes one of the user's own sessions. The revoked
// session's device is told first, while its connection is still
// addressable, then the session is removed.
func (s *SessionService) DeleteSession(ctx context.Context, authCtx models.AuthContext, sessionID uint) error {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != authCtx.UserID {
		return models.NewForbiddenError("You can only delete your own sessions")
	}

	s.emitter.EmitToSession(sessionID, notifications.EventSessionDelete, session.View())

	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.emitSessionList(ctx, authCtx.UserID)
	return nil
}

// DeleteAllSessions logs the user out everywhere.
func (s *SessionService) DeleteAllSessions(ctx context.Context, authCtx models.AuthContext) error {
	if err := s.userRepo.DeleteAllSessions(ctx, authCtx.UserID); err != nil {
		return err
	}
	s.emitter.EmitToUsers([]uint{authCtx.UserID}, notifications.EventSessionUpdate, []models.SessionView{})
	return nil
}

// emitSessionList pushes the user's current redacted session list to all of
// their devices.
func (s *SessionService) emitSessionList(ctx context.Context, userID uint) {
	sessions, err := s.userRepo.ListSessions(ctx, userID)
	if err != nil {
		return
	}
	s.emitter.EmitToUsers([]uint{userID}, notifications.EventSessionUpdate, models.RedactSessions(sessions))
}
