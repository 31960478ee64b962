package service

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
)

// FriendshipService provides friendship creation, acceptance, and removal.
type FriendshipService struct {
	friendshipRepo repository.FriendshipRepository
	userRepo       repository.UserRepository
	cascade        *CascadeManager
	emitter        Emitter
}

// NewFriendshipService returns a new FriendshipService.
func NewFriendshipService(
	friendshipRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	cascade *CascadeManager,
	emitter Emitter,
) *FriendshipService {
	return &FriendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		cascade:        cascade,
		emitter:        emitter,
	}
}

// Create sends a friend request to the named user. A friendship with
// oneself, or a second friendship for a pair that already has one in either
// direction, is a Conflict.
func (s *FriendshipService) Create(ctx context.Context, authCtx models.AuthContext, targetUsername string) (*models.Friendship, error) {
	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if target.ID == authCtx.UserID {
		return nil, models.NewConflictError("Cannot create a friendship with yourself")
	}

	existing, err := s.friendshipRepo.GetBetween(ctx, authCtx.UserID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Friendship already exists")
	}

	friendship := &models.Friendship{
		CreatorID: authCtx.UserID,
		FriendID:  target.ID,
	}
	// A concurrent create for the same pair loses at the unique index and
	// comes back as Conflict.
	if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{friendship.CreatorID, friendship.FriendID}, notifications.EventFriendshipNew, friendship)
	return friendship, nil
}

// Accept marks a pending friendship accepted. Only the invited (non-creator)
// party may accept.
func (s *FriendshipService) Accept(ctx context.Context, authCtx models.AuthContext, friendshipID uint) (*models.Friendship, error) {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if friendship.FriendID != authCtx.UserID {
		return nil, models.NewForbiddenError("Only the invited party may accept a friendship")
	}
	if friendship.Accepted {
		return nil, models.NewInvalidStateError("Friendship is already accepted")
	}

	if err := s.friendshipRepo.SetAccepted(ctx, friendshipID); err != nil {
		return nil, err
	}
	friendship.Accepted = true

	s.emitter.EmitToUsers([]uint{friendship.CreatorID, friendship.FriendID}, notifications.EventFriendshipAccept, friendship)
	return friendship, nil
}

// Reject deletes a pending friendship. Only the invited (non-creator) party
// may reject; an accepted friendship can no longer be rejected, only
// removed.
func (s *FriendshipService) Reject(ctx context.Context, authCtx models.AuthContext, friendshipID uint) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.FriendID != authCtx.UserID {
		return models.NewForbiddenError("Only the invited party may reject a friendship")
	}
	if friendship.Accepted {
		return models.NewInvalidStateError("Friendship is already accepted")
	}

	s.cascade.CascadeFriendship(ctx, friendshipID)
	s.emitter.EmitToUsers([]uint{friendship.CreatorID, friendship.FriendID}, notifications.EventFriendshipReject, friendship)
	return nil
}

// Remove deletes a friendship either party no longer wants. The DM room
// backed by it is left alone; its publish check fails from now on.
func (s *FriendshipService) Remove(ctx context.Context, authCtx models.AuthContext, friendshipID uint) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !friendship.Involves(authCtx.UserID) {
		return models.NewForbiddenError("You are not a party to this friendship")
	}

	s.cascade.CascadeFriendship(ctx, friendshipID)
	s.emitter.EmitToUsers([]uint{friendship.CreatorID, friendship.FriendID}, notifications.EventFriendshipRemove, friendship)
	return nil
}

// List returns every friendship the caller is party to, pending and
// accepted.
func (s *FriendshipService) List(ctx context.Context, authCtx models.AuthContext) ([]models.Friendship, error) {
	return s.friendshipRepo.ListForUser(ctx, authCtx.UserID)
}
