package service

import (
	"context"
	"log/slog"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repository"
)

// CascadeManager performs the ordered cleanup of dependents when a User,
// Room, Channel, or Friendship is deleted. Cascades are not transactional:
// a failed step is logged and the cascade continues, and every step is a
// no-op when its dependent is already gone, so an interrupted cascade can
// be re-run safely.
type CascadeManager struct {
	userRepo       repository.UserRepository
	roomRepo       repository.RoomRepository
	channelRepo    repository.ChannelRepository
	messageRepo    repository.MessageRepository
	friendshipRepo repository.FriendshipRepository
	inviteRepo     repository.InviteRepository
	noteRepo       repository.NoteRepository
	settingsRepo   repository.SettingsRepository
	logger         *slog.Logger
}

// NewCascadeManager returns a CascadeManager over the given repositories.
func NewCascadeManager(
	userRepo repository.UserRepository,
	roomRepo repository.RoomRepository,
	channelRepo repository.ChannelRepository,
	messageRepo repository.MessageRepository,
	friendshipRepo repository.FriendshipRepository,
	inviteRepo repository.InviteRepository,
	noteRepo repository.NoteRepository,
	settingsRepo repository.SettingsRepository,
) *CascadeManager {
	return &CascadeManager{
		userRepo:       userRepo,
		roomRepo:       roomRepo,
		channelRepo:    channelRepo,
		messageRepo:    messageRepo,
		friendshipRepo: friendshipRepo,
		inviteRepo:     inviteRepo,
		noteRepo:       noteRepo,
		settingsRepo:   settingsRepo,
		logger:         middleware.Logger,
	}
}

func (m *CascadeManager) step(ctx context.Context, cascade, step string, err error) {
	if err == nil || models.IsNotFound(err) {
		return
	}
	m.logger.ErrorContext(ctx, "cascade step failed",
		slog.String("cascade", cascade),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// CascadeChannel deletes a channel and every message it owns.
func (m *CascadeManager) CascadeChannel(ctx context.Context, channelID uint) {
	m.step(ctx, "channel", "delete messages", m.messageRepo.DeleteByChannel(ctx, channelID))
	m.step(ctx, "channel", "delete channel", m.channelRepo.Delete(ctx, channelID))
}

// CascadeRoom deletes a room, its channels (with their messages), its
// invites, and every membership row pointing at it.
func (m *CascadeManager) CascadeRoom(ctx context.Context, roomID uint) {
	channels, err := m.channelRepo.ListByRoom(ctx, roomID)
	if err != nil {
		m.step(ctx, "room", "list channels", err)
	}
	for i := range channels {
		m.CascadeChannel(ctx, channels[i].ID)
	}
	m.step(ctx, "room", "delete invites", m.inviteRepo.DeleteByRoom(ctx, roomID))
	m.step(ctx, "room", "delete memberships", m.roomRepo.RemoveAllMembers(ctx, roomID))
	m.step(ctx, "room", "delete room", m.roomRepo.Delete(ctx, roomID))
}

// CascadeUser deletes a user and everything hanging off them: settings,
// owned group rooms (recursively), DM rooms they participate in (both
// members lose the DM; a DM pointing at a missing user is never served),
// remaining memberships, friendships, notes, and finally the user row with
// its sessions.
func (m *CascadeManager) CascadeUser(ctx context.Context, userID uint) {
	m.step(ctx, "user", "delete settings", m.settingsRepo.DeleteByUser(ctx, userID))

	owned, err := m.roomRepo.ListOwnedBy(ctx, userID)
	if err != nil {
		m.step(ctx, "user", "list owned rooms", err)
	}
	for i := range owned {
		m.CascadeRoom(ctx, owned[i].ID)
	}

	memberships, err := m.roomRepo.MembershipsForUser(ctx, userID)
	if err != nil {
		m.step(ctx, "user", "list memberships", err)
	}
	for i := range memberships {
		if memberships[i].DM {
			m.CascadeRoom(ctx, memberships[i].RoomID)
			continue
		}
		m.step(ctx, "user", "leave room", m.roomRepo.RemoveMember(ctx, memberships[i].RoomID, userID))
	}

	m.step(ctx, "user", "delete friendships", m.friendshipRepo.DeleteAllForUser(ctx, userID))
	m.step(ctx, "user", "delete notes", m.noteRepo.DeleteAllForUser(ctx, userID))
	m.step(ctx, "user", "delete user", m.userRepo.Delete(ctx, userID))
	m.step(ctx, "user", "delete sessions", m.userRepo.DeleteAllSessions(ctx, userID))
}

// CascadeFriendship deletes the friendship row and nothing else. A DM room
// backed by the friendship survives, but publishing into it fails because
// the accepted-friendship check runs on every publish.
func (m *CascadeManager) CascadeFriendship(ctx context.Context, friendshipID uint) {
	m.step(ctx, "friendship", "delete friendship", m.friendshipRepo.Delete(ctx, friendshipID))
}
