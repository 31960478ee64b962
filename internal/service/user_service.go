package service

import (
	"context"
	"log/slog"
	"time"

	"pulse/internal/auth"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
	"pulse/internal/validation"
)

// UnverifiedUserTTL is how long an account may stay unverified before the
// reaper removes it.
const UnverifiedUserTTL = 24 * time.Hour

const emailTokenSubject = "Email"

// UserService provides account registration, profile management, and
// account deletion.
type UserService struct {
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
	roomRepo     repository.RoomRepository
	cascade      *CascadeManager
	signer       *auth.TokenSigner
	emitter      Emitter

	defaultProfilePic string
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	settingsRepo repository.SettingsRepository,
	roomRepo repository.RoomRepository,
	cascade *CascadeManager,
	signer *auth.TokenSigner,
	emitter Emitter,
	defaultProfilePic string,
) *UserService {
	return &UserService{
		userRepo:          userRepo,
		settingsRepo:      settingsRepo,
		roomRepo:          roomRepo,
		cascade:           cascade,
		signer:            signer,
		emitter:           emitter,
		defaultProfilePic: defaultProfilePic,
	}
}

// RegisterParams are the inputs to Register.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates an unverified account with default settings and the
// configured placeholder avatar. Username and email uniqueness is enforced
// by the store; a duplicate surfaces as Conflict.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if err := validation.ValidateUsername(params.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(params.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(params.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	digest, err := auth.HashPassword(params.Password, salt)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	displayName := params.DisplayName
	if displayName == "" {
		displayName = params.Username
	}

	user := &models.User{
		Username:       params.Username,
		Email:          params.Email,
		DisplayName:    displayName,
		ProfilePic:     s.defaultProfilePic,
		Verified:       false,
		PasswordDigest: digest,
		PasswordSalt:   salt,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	settings := &models.Settings{UserID: user.ID, Settings: models.DefaultSettings()}
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to create settings for new user",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// GetSelf returns the caller's own account, credentials redacted by shape.
func (s *UserService) GetSelf(ctx context.Context, authCtx models.AuthContext) (*models.User, error) {
	return s.userRepo.GetByID(ctx, authCtx.UserID)
}

// GetUser returns the cross-user public view of any existing account.
func (s *UserService) GetUser(ctx context.Context, targetID uint) (models.PublicView, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return models.PublicView{}, err
	}
	return user.Public(), nil
}

// GetUserByUsername resolves a username to its public view.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.PublicView, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return models.PublicView{}, err
	}
	return user.Public(), nil
}

// UpdateParams are the optional profile fields Update may change.
type UpdateParams struct {
	DisplayName *string
	About       *string
	ProfilePic  *string
	Password    *string
}

// Update applies profile changes and optionally rotates the password. The
// caller's devices get the full refreshed account; users sharing a room with
// the caller get the refreshed public view.
func (s *UserService) Update(ctx context.Context, authCtx models.AuthContext, params UpdateParams) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}

	if params.DisplayName != nil {
		user.DisplayName = *params.DisplayName
	}
	if params.About != nil {
		user.About = *params.About
	}
	if params.ProfilePic != nil {
		user.ProfilePic = *params.ProfilePic
	}
	if params.Password != nil {
		if err := validation.ValidatePassword(*params.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		salt, err := auth.NewSalt()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		digest, err := auth.HashPassword(*params.Password, salt)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.PasswordSalt = salt
		user.PasswordDigest = digest
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{user.ID}, notifications.EventActiveUserUpdate, user)
	if coMembers := s.coMemberIDs(ctx, user.ID); len(coMembers) > 0 {
		s.emitter.EmitToUsers(coMembers, notifications.EventUsersUpdate, user.Public())
	}
	return user, nil
}

// Delete removes the caller's account and cascades through everything it
// owns. Users who shared a room with the account are told afterwards.
func (s *UserService) Delete(ctx context.Context, authCtx models.AuthContext) error {
	if _, err := s.userRepo.GetByID(ctx, authCtx.UserID); err != nil {
		return err
	}

	coMembers := s.coMemberIDs(ctx, authCtx.UserID)
	s.cascade.CascadeUser(ctx, authCtx.UserID)

	if len(coMembers) > 0 {
		s.emitter.EmitToUsers(coMembers, notifications.EventUsersUpdate, map[string]uint{"deleted": authCtx.UserID})
	}
	return nil
}

// ReorderRooms persists a user-defined ordering of the caller's group room
// list. The new order must be an exact permutation of the current list.
func (s *UserService) ReorderRooms(ctx context.Context, authCtx models.AuthContext, roomIDs []uint) error {
	memberships, err := s.roomRepo.MembershipsForUser(ctx, authCtx.UserID)
	if err != nil {
		return err
	}

	current := make(map[uint]struct{})
	for i := range memberships {
		if !memberships[i].DM {
			current[memberships[i].RoomID] = struct{}{}
		}
	}
	if len(roomIDs) != len(current) {
		return models.NewValidationError("Room order must include every room exactly once")
	}
	seen := make(map[uint]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		if _, ok := current[id]; !ok {
			return models.NewValidationError("Room order must include every room exactly once")
		}
		if _, dup := seen[id]; dup {
			return models.NewValidationError("Room order must include every room exactly once")
		}
		seen[id] = struct{}{}
	}

	if err := s.roomRepo.UpdatePositions(ctx, authCtx.UserID, roomIDs); err != nil {
		return err
	}

	s.emitter.EmitToUsers([]uint{authCtx.UserID}, notifications.EventActiveUserUpdate, map[string][]uint{"rooms": roomIDs})
	return nil
}

// EmailVerificationToken mints the short-lived token embedded in a
// verification link.
func (s *UserService) EmailVerificationToken(userID uint) (string, error) {
	token, err := s.signer.SignWithTTL(userID, emailTokenSubject, auth.EmailTokenTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}

// VerifyEmail marks the account behind a verification token as verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.signer.Verify(token)
	if err != nil || claims.Subject != emailTokenSubject {
		return models.NewInvalidCredentialError("Invalid or expired verification token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	user.Verified = true
	return s.userRepo.Update(ctx, user)
}

// ReapUnverified deletes every account still unverified past the TTL.
// Returns how many accounts were removed.
func (s *UserService) ReapUnverified(ctx context.Context) (int, error) {
	stale, err := s.userRepo.ListUnverifiedBefore(ctx, time.Now().Add(-UnverifiedUserTTL))
	if err != nil {
		return 0, err
	}
	for i := range stale {
		s.cascade.CascadeUser(ctx, stale[i].ID)
	}
	return len(stale), nil
}

// StartUnverifiedReaper runs ReapUnverified on a ticker until ctx is
// cancelled.
func (s *UserService) StartUnverifiedReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.ReapUnverified(ctx); err != nil {
					middleware.Logger.ErrorContext(ctx, "unverified user reap failed", slog.String("error", err.Error()))
				} else if n > 0 {
					middleware.Logger.InfoContext(ctx, "reaped unverified users", slog.Int("count", n))
				}
			}
		}
	}()
}

// coMemberIDs returns every other user sharing at least one room with
// userID.
func (s *UserService) coMemberIDs(ctx context.Context, userID uint) []uint {
	memberships, err := s.roomRepo.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil
	}

	seen := map[uint]struct{}{userID: {}}
	var ids []uint
	for i := range memberships {
		room, err := s.roomRepo.GetByID(ctx, memberships[i].RoomID)
		if err != nil {
			continue
		}
		for _, id := range room.MemberIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
