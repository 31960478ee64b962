package service_test

import (
	"context"
	"testing"

	"pulse/internal/auth"
	"pulse/internal/database"
	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/seed"
	"pulse/internal/service"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv wires the full service layer onto an in-memory database with a
// capturing emitter, one per test.
type testEnv struct {
	db      *gorm.DB
	factory *seed.Factory
	emitter *testutil.CaptureEmitter

	userRepo       repository.UserRepository
	roomRepo       repository.RoomRepository
	channelRepo    repository.ChannelRepository
	messageRepo    repository.MessageRepository
	friendshipRepo repository.FriendshipRepository
	inviteRepo     repository.InviteRepository
	noteRepo       repository.NoteRepository
	settingsRepo   repository.SettingsRepository

	cascade     *service.CascadeManager
	sessions    *service.SessionService
	users       *service.UserService
	friendships *service.FriendshipService
	rooms       *service.RoomService
	channels    *service.ChannelService
	messages    *service.MessageService
	invites     *service.InviteService
	notes       *service.NoteService
	settings    *service.SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		factory: seed.NewFactory(db),
		emitter: testutil.NewCaptureEmitter(),

		userRepo:       repository.NewUserRepository(db),
		roomRepo:       repository.NewRoomRepository(db),
		channelRepo:    repository.NewChannelRepository(db),
		messageRepo:    repository.NewMessageRepository(db),
		friendshipRepo: repository.NewFriendshipRepository(db),
		inviteRepo:     repository.NewInviteRepository(db),
		noteRepo:       repository.NewNoteRepository(db),
		settingsRepo:   repository.NewSettingsRepository(db),
	}

	signer := auth.NewTokenSigner("test-secret-key-at-least-32-bytes!")
	env.cascade = service.NewCascadeManager(
		env.userRepo, env.roomRepo, env.channelRepo, env.messageRepo,
		env.friendshipRepo, env.inviteRepo, env.noteRepo, env.settingsRepo,
	)
	env.sessions = service.NewSessionService(env.userRepo, signer, env.emitter)
	env.users = service.NewUserService(
		env.userRepo, env.settingsRepo, env.roomRepo, env.cascade, signer, env.emitter, "default.png",
	)
	env.friendships = service.NewFriendshipService(env.friendshipRepo, env.userRepo, env.cascade, env.emitter)
	env.rooms = service.NewRoomService(
		env.roomRepo, env.channelRepo, env.friendshipRepo, env.userRepo, env.inviteRepo, env.cascade, env.emitter,
	)
	env.channels = service.NewChannelService(env.channelRepo, env.roomRepo, env.cascade, env.emitter)
	env.messages = service.NewMessageService(
		env.messageRepo, env.channelRepo, env.roomRepo, env.friendshipRepo, env.emitter,
	)
	env.invites = service.NewInviteService(env.inviteRepo, env.roomRepo)
	env.notes = service.NewNoteService(env.noteRepo, env.userRepo, env.emitter)
	env.settings = service.NewSettingsService(env.settingsRepo, env.emitter)

	return env
}

// newUser creates a persisted user and returns an AuthContext for it with a
// live session.
func (env *testEnv) newUser(t *testing.T) (*models.User, models.AuthContext) {
	t.Helper()
	user, err := env.factory.CreateUser()
	require.NoError(t, err)

	session := &models.Session{
		UserID:    user.ID,
		IP:        "127.0.0.1",
		UserAgent: "test-agent",
		Token:     "seed-token-" + user.Username,
	}
	require.NoError(t, env.userRepo.AddSession(context.Background(), session))

	return user, models.AuthContext{UserID: user.ID, SessionID: session.ID}
}

// befriend creates an accepted friendship between the two users.
func (env *testEnv) befriend(t *testing.T, a, b uint) *models.Friendship {
	t.Helper()
	f, err := env.factory.CreateFriendship(a, b, true)
	require.NoError(t, err)
	return f
}
