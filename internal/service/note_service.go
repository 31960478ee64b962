package service

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
)

// NoteService provides the private per-user annotations one user keeps
// about another.
type NoteService struct {
	noteRepo repository.NoteRepository
	userRepo repository.UserRepository
	emitter  Emitter
}

// NewNoteService returns a new NoteService.
func NewNoteService(noteRepo repository.NoteRepository, userRepo repository.UserRepository, emitter Emitter) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		emitter:  emitter,
	}
}

// Upsert writes the caller's note about another user, replacing any
// existing one for the pair.
func (s *NoteService) Upsert(ctx context.Context, authCtx models.AuthContext, subjectID uint, text string) (*models.Note, error) {
	if subjectID == authCtx.UserID {
		return nil, models.NewValidationError("Notes are about other users")
	}
	if _, err := s.userRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	note := &models.Note{
		CreatorID: authCtx.UserID,
		SubjectID: subjectID,
		Note:      text,
	}
	if err := s.noteRepo.Upsert(ctx, note); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{authCtx.UserID}, notifications.EventNotesUpdate, note)
	return note, nil
}

// List returns only the notes the caller authored.
func (s *NoteService) List(ctx context.Context, authCtx models.AuthContext) ([]models.Note, error) {
	return s.noteRepo.ListByCreator(ctx, authCtx.UserID)
}
