package repository

import (
	"context"
	"errors"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// ChannelRepository defines the interface for channel data operations
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id uint) (*models.Channel, error)
	ListByRoom(ctx context.Context, roomID uint) ([]models.Channel, error)
	CountByRoom(ctx context.Context, roomID uint) (int64, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id uint) error
	DeleteByRoom(ctx context.Context, roomID uint) error
}

// channelRepository implements ChannelRepository
type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Channel", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &channel, nil
}

func (r *channelRepository) ListByRoom(ctx context.Context, roomID uint) ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id").
		Find(&channels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return channels, nil
}

func (r *channelRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("room_id = ?", roomID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *channelRepository) Update(ctx context.Context, channel *models.Channel) error {
	if err := r.db.WithContext(ctx).Save(channel).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *channelRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Channel{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *channelRepository) DeleteByRoom(ctx context.Context, roomID uint) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&models.Channel{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
