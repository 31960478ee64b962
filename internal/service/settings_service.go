package service

import (
	"context"
	"encoding/json"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
)

// SettingsService provides the self-only settings blob.
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	emitter      Emitter
}

// NewSettingsService returns a new SettingsService.
func NewSettingsService(settingsRepo repository.SettingsRepository, emitter Emitter) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		emitter:      emitter,
	}
}

// Get returns the caller's settings.
func (s *SettingsService) Get(ctx context.Context, authCtx models.AuthContext) (*models.Settings, error) {
	return s.settingsRepo.GetByUser(ctx, authCtx.UserID)
}

// Update replaces the caller's settings blob.
func (s *SettingsService) Update(ctx context.Context, authCtx models.AuthContext, blob json.RawMessage) (*models.Settings, error) {
	if !json.Valid(blob) {
		return nil, models.NewValidationError("Settings must be a valid JSON document")
	}

	if err := s.settingsRepo.UpdateByUser(ctx, authCtx.UserID, blob); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetByUser(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{authCtx.UserID}, notifications.EventSettingsUpdate, settings)
	return settings, nil
}
