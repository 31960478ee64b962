package service

import (
	"context"
	"errors"

	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/google/uuid"
)

const inviteCodeAttempts = 5

// InviteService provides invite creation and revocation for group rooms.
type InviteService struct {
	inviteRepo repository.InviteRepository
	roomRepo   repository.RoomRepository
}

// NewInviteService returns a new InviteService.
func NewInviteService(inviteRepo repository.InviteRepository, roomRepo repository.RoomRepository) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		roomRepo:   roomRepo,
	}
}

// Create mints an invite code for a group room. Owner-only; DM rooms never
// have invites. Codes are the first 8 characters of a v4 UUID, re-rolled on
// collision.
func (s *InviteService) Create(ctx context.Context, authCtx models.AuthContext, roomID uint) (*models.Invite, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.DM {
		return nil, models.NewInvalidStateError("DM rooms cannot have invites")
	}
	if !room.IsOwner(authCtx.UserID) {
		return nil, models.NewForbiddenError("Only the room owner may create invites")
	}

	code, err := s.freshCode(ctx)
	if err != nil {
		return nil, err
	}

	invite := &models.Invite{Code: code, RoomID: roomID}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// Remove revokes an invite. Owner-only.
func (s *InviteService) Remove(ctx context.Context, authCtx models.AuthContext, inviteID uint) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}

	room, err := s.roomRepo.GetByID(ctx, invite.RoomID)
	if err != nil {
		return err
	}
	if !room.IsOwner(authCtx.UserID) {
		return models.NewForbiddenError("Only the room owner may remove invites")
	}

	return s.inviteRepo.Delete(ctx, inviteID)
}

func (s *InviteService) freshCode(ctx context.Context) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code := uuid.NewString()[:8]
		exists, err := s.inviteRepo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", models.NewInternalError(errors.New("could not allocate a unique invite code"))
}
