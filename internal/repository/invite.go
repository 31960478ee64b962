package repository

import (
	"context"
	"errors"
	"time"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// InviteRepository defines the interface for invite data operations
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByID(ctx context.Context, id uint) (*models.Invite, error)
	// GetByCode resolves a non-expired invite. Expired invites are
	// removed lazily here and reported as NotFound.
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, id uint) error
	DeleteByRoom(ctx context.Context, roomID uint) error
}

// inviteRepository implements InviteRepository
type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Invite code already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).First(&invite, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invite", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invite", code)
		}
		return nil, models.NewInternalError(err)
	}
	if invite.Expired(time.Now()) {
		// TTL is enforced on lookup; the dead row is reaped in passing.
		_ = r.db.WithContext(ctx).Delete(&models.Invite{}, invite.ID).Error
		return nil, models.NewNotFoundError("Invite", code)
	}
	return &invite, nil
}

func (r *inviteRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *inviteRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Invite{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inviteRepository) DeleteByRoom(ctx context.Context, roomID uint) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&models.Invite{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
