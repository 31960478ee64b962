package repository

import (
	"context"
	"errors"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// RoomRepository defines the interface for room and membership data operations
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	GetDMBetween(ctx context.Context, userID1, userID2 uint) (*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error

	AddMember(ctx context.Context, membership *models.RoomMembership) error
	RemoveMember(ctx context.Context, roomID, userID uint) error
	RemoveAllMembers(ctx context.Context, roomID uint) error
	MembershipsForUser(ctx context.Context, userID uint) ([]models.RoomMembership, error)
	ListForUser(ctx context.Context, userID uint, dm bool) ([]models.Room, error)
	CountGroupRoomsForUser(ctx context.Context, userID uint) (int64, error)
	ListOwnedBy(ctx context.Context, userID uint) ([]models.Room, error)
	UpdatePositions(ctx context.Context, userID uint, roomIDs []uint) error
}

// roomRepository implements RoomRepository
type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("DM already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).
		Preload("Memberships").
		Preload("Channels").
		First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Room", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

func (r *roomRepository) GetDMBetween(ctx context.Context, userID1, userID2 uint) (*models.Room, error) {
	low, high := models.DMPair(userID1, userID2)
	var room models.Room
	if err := r.db.WithContext(ctx).
		Preload("Memberships").
		Preload("Channels").
		Where("dm = ? AND dm_low_id = ? AND dm_high_id = ?", true, low, high).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no DM links this pair
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

func (r *roomRepository) Update(ctx context.Context, room *models.Room) error {
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", room.ID).
		Updates(map[string]interface{}{"name": room.Name, "profile_pic": room.ProfilePic}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Room{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) AddMember(ctx context.Context, membership *models.RoomMembership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("User already member in room")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomMembership{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) RemoveAllMembers(ctx context.Context, roomID uint) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&models.RoomMembership{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) MembershipsForUser(ctx context.Context, userID uint) ([]models.RoomMembership, error) {
	var memberships []models.RoomMembership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

func (r *roomRepository) ListForUser(ctx context.Context, userID uint, dm bool) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).
		Joins("JOIN room_memberships m ON m.room_id = rooms.id").
		Where("m.user_id = ? AND m.dm = ?", userID, dm).
		Order("m.position, m.joined_at").
		Preload("Memberships").
		Preload("Channels").
		Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) CountGroupRoomsForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RoomMembership{}).
		Where("user_id = ? AND dm = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *roomRepository) ListOwnedBy(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).
		Where("creator_id = ? AND dm = ?", userID, false).
		Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) UpdatePositions(ctx context.Context, userID uint, roomIDs []uint) error {
	for position, roomID := range roomIDs {
		if err := r.db.WithContext(ctx).
			Model(&models.RoomMembership{}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			Update("position", position).Error; err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}
