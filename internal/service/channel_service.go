package service

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
	"pulse/internal/validation"
)

// ChannelService provides channel lifecycle within group rooms.
type ChannelService struct {
	channelRepo repository.ChannelRepository
	roomRepo    repository.RoomRepository
	cascade     *CascadeManager
	emitter     Emitter
}

// NewChannelService returns a new ChannelService.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	roomRepo repository.RoomRepository,
	cascade *CascadeManager,
	emitter Emitter,
) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		roomRepo:    roomRepo,
		cascade:     cascade,
		emitter:     emitter,
	}
}

// mutableRoom loads a room and checks the caller may change its channel
// set: owner only, and never on a DM room.
func (s *ChannelService) mutableRoom(ctx context.Context, authCtx models.AuthContext, roomID uint) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.DM {
		return nil, models.NewInvalidStateError("DM rooms have a fixed channel set")
	}
	if !room.IsOwner(authCtx.UserID) {
		return nil, models.NewForbiddenError("Only the room owner may manage channels")
	}
	return room, nil
}

// ChannelParams are the inputs to Create and Update.
type ChannelParams struct {
	Name        string
	Category    string
	Description string
}

// Create adds a channel to a group room, subject to the per-room cap.
func (s *ChannelService) Create(ctx context.Context, authCtx models.AuthContext, roomID uint, params ChannelParams) (*models.Channel, error) {
	if err := validation.ValidateChannelName(params.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	room, err := s.mutableRoom(ctx, authCtx, roomID)
	if err != nil {
		return nil, err
	}

	count, err := s.channelRepo.CountByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxChannelsPerRoom {
		return nil, models.NewConflictError("Channel limit reached")
	}

	channel := &models.Channel{
		RoomID:      roomID,
		Name:        params.Name,
		Category:    params.Category,
		Description: params.Description,
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventChannelsNew, channel)
	return channel, nil
}

// Update renames or re-describes a channel.
func (s *ChannelService) Update(ctx context.Context, authCtx models.AuthContext, channelID uint, params ChannelParams) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	room, err := s.mutableRoom(ctx, authCtx, channel.RoomID)
	if err != nil {
		return nil, err
	}

	if params.Name != "" {
		if err := validation.ValidateChannelName(params.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		channel.Name = params.Name
	}
	channel.Category = params.Category
	channel.Description = params.Description

	if err := s.channelRepo.Update(ctx, channel); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventChannelsUpdate, channel)
	return channel, nil
}

// Remove deletes a channel and its messages.
func (s *ChannelService) Remove(ctx context.Context, authCtx models.AuthContext, channelID uint) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}

	room, err := s.mutableRoom(ctx, authCtx, channel.RoomID)
	if err != nil {
		return err
	}

	s.cascade.CascadeChannel(ctx, channelID)
	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventChannelsRemove, map[string]uint{"id": channelID})
	return nil
}

// Get returns a channel to a member of its room.
func (s *ChannelService) Get(ctx context.Context, authCtx models.AuthContext, channelID uint) (*models.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	room, err := s.roomRepo.GetByID(ctx, channel.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(authCtx.UserID) {
		return nil, models.NewForbiddenError("You are not a member of this room")
	}
	return channel, nil
}

// ListByRoom returns a room's channels to its members.
func (s *ChannelService) ListByRoom(ctx context.Context, authCtx models.AuthContext, roomID uint) ([]models.Channel, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(authCtx.UserID) {
		return nil, models.NewForbiddenError("You are not a member of this room")
	}
	return s.channelRepo.ListByRoom(ctx, roomID)
}
