package service

import (
	"context"
	"strings"
	"time"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/repository"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

// MessageService provides message publishing, editing, and history reads.
type MessageService struct {
	messageRepo    repository.MessageRepository
	channelRepo    repository.ChannelRepository
	roomRepo       repository.RoomRepository
	friendshipRepo repository.FriendshipRepository
	emitter        Emitter
}

// NewMessageService returns a new MessageService.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	roomRepo repository.RoomRepository,
	friendshipRepo repository.FriendshipRepository,
	emitter Emitter,
) *MessageService {
	return &MessageService{
		messageRepo:    messageRepo,
		channelRepo:    channelRepo,
		roomRepo:       roomRepo,
		friendshipRepo: friendshipRepo,
		emitter:        emitter,
	}
}

// memberRoom resolves a channel to its room and checks the caller belongs
// to it.
func (s *MessageService) memberRoom(ctx context.Context, authCtx models.AuthContext, channelID uint) (*models.Room, error) {
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
	return room, nil
}

// Publish writes a message into a channel. The sender must be a member of
// the owning room, and in a DM the backing friendship must still be
// accepted; a removed friendship silences the DM without deleting it.
func (s *MessageService) Publish(ctx context.Context, authCtx models.AuthContext, channelID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Message content is required")
	}

	room, err := s.memberRoom(ctx, authCtx, channelID)
	if err != nil {
		return nil, err
	}

	if room.DM {
		var otherID uint
		for _, id := range room.MemberIDs() {
			if id != authCtx.UserID {
				otherID = id
			}
		}
		friendship, err := s.friendshipRepo.GetBetween(ctx, authCtx.UserID, otherID)
		if err != nil {
			return nil, err
		}
		if friendship == nil || !friendship.Accepted {
			return nil, models.NewForbiddenError("The friendship behind this DM is no longer accepted")
		}
	}

	message := &models.Message{
		ChannelID: channelID,
		SenderID:  authCtx.UserID,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventMessagesNew, message)
	return message, nil
}

// Edit changes a message's content. Sender-only.
func (s *MessageService) Edit(ctx context.Context, authCtx models.AuthContext, messageID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Message content is required")
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != authCtx.UserID {
		return nil, models.NewForbiddenError("Only the sender may edit a message")
	}

	room, err := s.memberRoom(ctx, authCtx, message.ChannelID)
	if err != nil {
		return nil, err
	}

	message.Content = content
	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventMessagesUpdate, message)
	return message, nil
}

// Remove deletes a message. The sender always may; the room owner may too,
// except in DMs where there is no owner.
func (s *MessageService) Remove(ctx context.Context, authCtx models.AuthContext, messageID uint) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	channel, err := s.channelRepo.GetByID(ctx, message.ChannelID)
	if err != nil {
		return err
	}
	room, err := s.roomRepo.GetByID(ctx, channel.RoomID)
	if err != nil {
		return err
	}

	if message.SenderID != authCtx.UserID && !room.IsOwner(authCtx.UserID) {
		return models.NewForbiddenError("Only the sender or the room owner may remove a message")
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.emitter.EmitToUsers(room.MemberIDs(), notifications.EventMessagesDeleteOne, map[string]uint{
		"id":      messageID,
		"channel": message.ChannelID,
	})
	return nil
}

// Get returns one message to a member of its room.
func (s *MessageService) Get(ctx context.Context, authCtx models.AuthContext, messageID uint) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRoom(ctx, authCtx, message.ChannelID); err != nil {
		return nil, err
	}
	return message, nil
}

// ListChannel returns a page of a channel's history, newest first, to
// members of the owning room only.
func (s *MessageService) ListChannel(ctx context.Context, authCtx models.AuthContext, channelID uint, limit, offset int) ([]models.Message, error) {
	if _, err := s.memberRoom(ctx, authCtx, channelID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.messageRepo.ListByChannel(ctx, channelID, limit, offset)
}
