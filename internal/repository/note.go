package repository

import (
	"context"

	"pulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	// Upsert writes the note for the (creator, subject) pair, replacing
	// any existing one.
	Upsert(ctx context.Context, note *models.Note) error
	ListByCreator(ctx context.Context, creatorID uint) ([]models.Note, error)
	// DeleteAllForUser removes every note the user authored or is the
	// subject of.
	DeleteAllForUser(ctx context.Context, userID uint) error
}

// noteRepository implements NoteRepository
type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Upsert(ctx context.Context, note *models.Note) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "creator_id"}, {Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"note", "updated_at"}),
		}).
		Create(note).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *noteRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.Note, error) {
	var notes []models.Note
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Find(&notes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return notes, nil
}

func (r *noteRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("creator_id = ? OR subject_id = ?", userID, userID).
		Delete(&models.Note{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
