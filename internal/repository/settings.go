package repository

import (
	"context"
	"encoding/json"
	"errors"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository defines the interface for per-user settings data operations
type SettingsRepository interface {
	Create(ctx context.Context, settings *models.Settings) error
	GetByUser(ctx context.Context, userID uint) (*models.Settings, error)
	UpdateByUser(ctx context.Context, userID uint, blob json.RawMessage) error
	DeleteByUser(ctx context.Context, userID uint) error
}

// settingsRepository implements SettingsRepository
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Create(ctx context.Context, settings *models.Settings) error {
	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Settings already exist")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *settingsRepository) GetByUser(ctx context.Context, userID uint) (*models.Settings, error) {
	var settings models.Settings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Settings", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &settings, nil
}

func (r *settingsRepository) UpdateByUser(ctx context.Context, userID uint, blob json.RawMessage) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("user_id = ?", userID).
		Update("settings", blob).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *settingsRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Settings{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
