// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user and session data operations.
// Sessions are owned exclusively by their user, so their persistence lives
// here rather than in a separate store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error)

	AddSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID uint) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	FindSession(ctx context.Context, userID uint, ip, userAgent string) (*models.Session, error)
	ListSessions(ctx context.Context, userID uint) ([]models.Session, error)
	DeleteSession(ctx context.Context, sessionID uint) error
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteAllSessions(ctx context.Context, userID uint) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("User with this username/email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", identifier)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("User with this username/email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("verified = ? AND created_at < ?", false, cutoff).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) AddSession(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent login from the same device won the race.
			// Hand back its session instead of failing.
			existing, findErr := r.FindSession(ctx, session.UserID, session.IP, session.UserAgent)
			if findErr == nil && existing != nil {
				*session = *existing
				return nil
			}
			return models.NewConflictError("Session already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetSession(ctx context.Context, sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Session", sessionID)
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *userRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Session", "token")
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *userRepository) FindSession(ctx context.Context, userID uint, ip, userAgent string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND ip = ? AND user_agent = ?", userID, ip, userAgent).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no session for this device
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *userRepository) ListSessions(ctx context.Context, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&sessions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return sessions, nil
}

func (r *userRepository) DeleteSession(ctx context.Context, sessionID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Session{}, sessionID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) DeleteSessionByToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) DeleteAllSessions(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
