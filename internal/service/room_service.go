package service

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
	"pulse/internal/validation"
)

// DefaultChannelName is the channel every new room starts with.
const DefaultChannelName = "Welcome"

// RoomService provides group room and DM room lifecycle and membership.
type RoomService struct {
	roomRepo       repository.RoomRepository
	channelRepo    repository.ChannelRepository
	friendshipRepo repository.FriendshipRepository
	userRepo       repository.UserRepository
	inviteRepo     repository.InviteRepository
	cascade        *CascadeManager
	emitter        Emitter
}

// NewRoomService returns a new RoomService.
func NewRoomService(
	roomRepo repository.RoomRepository,
	channelRepo repository.ChannelRepository,
	friendshipRepo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	inviteRepo repository.InviteRepository,
	cascade *CascadeManager,
	emitter Emitter,
) *RoomService {
	return &RoomService{
		roomRepo:       roomRepo,
		channelRepo:    channelRepo,
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		inviteRepo:     inviteRepo,
		cascade:        cascade,
		emitter:        emitter,
	}
}

// CreateRoom creates a group room with the caller as owner and sole member
// and a default channel. The caller's room cap applies.
func (s *RoomService) CreateRoom(ctx context.Context, authCtx models.AuthContext, name string) (*models.Room, error) {
	if err := validation.ValidateRoomName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	count, err := s.roomRepo.CountGroupRoomsForUser(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxRoomsPerUser {
		return nil, models.NewConflictError("Room limit reached")
	}

	room := &models.Room{Name: name, CreatorID: authCtx.UserID}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	membership := &models.RoomMembership{RoomID: room.ID, UserID: authCtx.UserID, Position: int(count)}
	if err := s.roomRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}

	channel := &models.Channel{RoomID: room.ID, Name: DefaultChannelName}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}

	created, err := s.roomRepo.GetByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{authCtx.UserID}, notifications.EventRoomsCreate, created)
	return created, nil
}

// CreateDM creates the direct-message room between the caller and another
// user. The pair must have an accepted friendship and no DM room yet; both
// are Conflicts otherwise, and the pair's unique index settles concurrent
// creates.
func (s *RoomService) CreateDM(ctx context.Context, authCtx models.AuthContext, otherUserID uint) (*models.Room, error) {
	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}

	friendship, err := s.friendshipRepo.GetBetween(ctx, authCtx.UserID, other.ID)
	if err != nil {
		return nil, err
	}
	if friendship == nil || !friendship.Accepted {
		return nil, models.NewConflictError("An accepted friendship is required for a DM")
	}

	existing, err := s.roomRepo.GetDMBetween(ctx, authCtx.UserID, other.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("DM already exists")
	}

	low, high := models.DMPair(authCtx.UserID, other.ID)
	room := &models.Room{
		Name:      other.Username,
		CreatorID: authCtx.UserID,
		DM:        true,
		DMLowID:   &low,
		DMHighID:  &high,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	for _, userID := range []uint{low, high} {
		m := &models.RoomMembership{RoomID: room.ID, UserID: userID, DM: true}
		if err := s.roomRepo.AddMember(ctx, m); err != nil {
			return nil, err
		}
	}

	channel := &models.Channel{RoomID: room.ID, Name: DefaultChannelName}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}

	created, err := s.roomRepo.GetByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers([]uint{low, high}, notifications.EventDMsCreate, created)
	return created, nil
}

// GetRoom returns a room to one of its members.
func (s *RoomService) GetRoom(ctx context.Context, authCtx models.AuthContext, roomID uint) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(authCtx.UserID) {
		return nil, models.NewForbiddenError("You are not a member of this room")
	}
	return room, nil
}

// ListRooms returns the caller's group rooms in their chosen order.
func (s *RoomService) ListRooms(ctx context.Context, authCtx models.AuthContext) ([]models.Room, error) {
	return s.roomRepo.ListForUser(ctx, authCtx.UserID, false)
}

// ListDMs returns the caller's DM rooms.
func (s *RoomService) ListDMs(ctx context.Context, authCtx models.AuthContext) ([]models.Room, error) {
	return s.roomRepo.ListForUser(ctx, authCtx.UserID, true)
}

// GetRoomMembers returns the public views of a room's members, to members
// only.
func (s *RoomService) GetRoomMembers(ctx context.Context, authCtx models.AuthContext, roomID uint) ([]models.PublicView, error) {
	room, err := s.GetRoom(ctx, authCtx, roomID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByIDs(ctx, room.MemberIDs())
	if err != nil {
		return nil, err
	}
	views := make([]models.PublicView, 0, len(users))
	for i := range users {
		views = append(views, users[i].Public())
	}
	return views, nil
}

// RoomParams carries the mutable room fields for an update.
type RoomParams struct {
	Name       string
	ProfilePic string
}

// UpdateRoom renames a group room or changes its picture. Owner only; DM
// rooms are fixed.
func (s *RoomService) UpdateRoom(ctx context.Context, authCtx models.AuthContext, roomID uint, params RoomParams) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.DM {
		return nil, models.NewInvalidStateError("DM rooms cannot be changed")
	}
	if !room.IsOwner(authCtx.UserID) {
		return nil, models.NewForbiddenError("Only the room owner may change it")
	}

	if params.Name != "" {
		if err := validation.ValidateRoomName(params.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		room.Name = params.Name
	}
	if params.ProfilePic != "" {
		room.ProfilePic = params.ProfilePic
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventRoomsUpdate, room)
	return room, nil
}

// RemoveRoom deletes a room and its dependents. Group rooms are owner-only;
// a DM room may be removed by either member and disappears for both.
func (s *RoomService) RemoveRoom(ctx context.Context, authCtx models.AuthContext, roomID uint) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	event := notifications.EventRoomsDeleteOne
	if room.DM {
		if !room.HasMember(authCtx.UserID) {
			return models.NewForbiddenError("You are not a member of this room")
		}
		event = notifications.EventDMsDeleteOne
	} else if !room.IsOwner(authCtx.UserID) {
		return models.NewForbiddenError("Only the room owner may remove it")
	}

	members := room.MemberIDs()
	s.cascade.CascadeRoom(ctx, roomID)

	s.emitter.EmitToUsers(members, event, map[string]uint{"id": roomID})
	return nil
}

// JoinRoom adds the caller to the group room behind a live invite code.
func (s *RoomService) JoinRoom(ctx context.Context, authCtx models.AuthContext, code string) (*models.Room, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	room, err := s.roomRepo.GetByID(ctx, invite.RoomID)
	if err != nil {
		return nil, err
	}
	if room.DM {
		return nil, models.NewInvalidStateError("DM rooms cannot be joined")
	}
	if room.HasMember(authCtx.UserID) {
		return nil, models.NewConflictError("User already member in room")
	}

	count, err := s.roomRepo.CountGroupRoomsForUser(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxRoomsPerUser {
		return nil, models.NewConflictError("Room limit reached")
	}

	membership := &models.RoomMembership{RoomID: room.ID, UserID: authCtx.UserID, Position: int(count)}
	if err := s.roomRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}

	joined, err := s.roomRepo.GetByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, authCtx.UserID)
	if err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(joined.MemberIDs(), notifications.EventRoomsJoin, map[string]interface{}{
		"room": joined,
		"user": user.Public(),
	})
	return joined, nil
}

// LeaveRoom removes the caller from a group room. Owners cannot leave their
// own room; they remove it instead.
func (s *RoomService) LeaveRoom(ctx context.Context, authCtx models.AuthContext, roomID uint) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.DM {
		return models.NewInvalidStateError("DM rooms cannot be left")
	}
	if !room.HasMember(authCtx.UserID) {
		return models.NewForbiddenError("You are not a member of this room")
	}
	if room.IsOwner(authCtx.UserID) {
		return models.NewForbiddenError("Owners cannot leave their own room")
	}

	if err := s.roomRepo.RemoveMember(ctx, roomID, authCtx.UserID); err != nil {
		return err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventRoomsLeave, map[string]uint{
		"room": roomID,
		"user": authCtx.UserID,
	})
	return nil
}
