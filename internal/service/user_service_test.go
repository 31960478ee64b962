package service_test

import (
	"context"
	"testing"
	"time"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/seed"
	"pulse/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("valid registration", func(t *testing.T) {
		user, err := env.users.Register(ctx, service.RegisterParams{
			Username: "new_user",
			Email:    "new@example.com",
			Password: "ValidPass123!",
		})
		require.NoError(t, err)
		assert.False(t, user.Verified)
		assert.Equal(t, "new_user", user.DisplayName)
		assert.Equal(t, "default.png", user.ProfilePic)

		// A settings row exists from the start.
		settings, err := env.settings.Get(ctx, models.AuthContext{UserID: user.ID})
		require.NoError(t, err)
		assert.JSONEq(t, string(models.DefaultSettings()), string(settings.Settings))
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := env.users.Register(ctx, service.RegisterParams{
			Username: "new_user",
			Email:    "other@example.com",
			Password: "ValidPass123!",
		})
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.Register(ctx, service.RegisterParams{
			Username: "other_user",
			Email:    "new@example.com",
			Password: "ValidPass123!",
		})
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := env.users.Register(ctx, service.RegisterParams{
			Username: "weak_user",
			Email:    "weak@example.com",
			Password: "short",
		})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("bad username", func(t *testing.T) {
		_, err := env.users.Register(ctx, service.RegisterParams{
			Username: "no spaces allowed",
			Email:    "spaces@example.com",
			Password: "ValidPass123!",
		})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})
}

func TestUpdateProfileFansOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	_, bobAuth := env.newUser(t)
	carol, _ := env.newUser(t)

	// Bob shares a room with Alice; Carol does not.
	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "shared")
	require.NoError(t, err)
	invite, err := env.invites.Create(ctx, aliceAuth, room.ID)
	require.NoError(t, err)
	_, err = env.rooms.JoinRoom(ctx, bobAuth, invite.Code)
	require.NoError(t, err)

	env.emitter.Reset()
	displayName := "Alice Prime"
	updated, err := env.users.Update(ctx, aliceAuth, service.UpdateParams{DisplayName: &displayName})
	require.NoError(t, err)
	assert.Equal(t, displayName, updated.DisplayName)

	// Alice's own devices get the full account.
	self := env.emitter.ByEvent(notifications.EventActiveUserUpdate)
	require.Len(t, self, 1)
	assert.Equal(t, []uint{alice.ID}, self[0].UserIDs)

	// Co-members get the public view; Carol hears nothing.
	public := env.emitter.ByEvent(notifications.EventUsersUpdate)
	require.Len(t, public, 1)
	assert.NotContains(t, public[0].UserIDs, carol.ID)
}

func TestUpdatePasswordRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, auth := env.newUser(t)

	newPassword := "RotatedPass456!"
	_, err := env.users.Update(ctx, auth, service.UpdateParams{Password: &newPassword})
	require.NoError(t, err)

	_, err = env.sessions.CheckPassword(ctx, user.Username, seed.DevPassword)
	assert.Equal(t, models.CodeInvalidCredential, models.ErrorCode(err))
	_, err = env.sessions.CheckPassword(ctx, user.Username, newPassword)
	assert.NoError(t, err)

	t.Run("weak replacement rejected", func(t *testing.T) {
		weak := "short"
		_, err := env.users.Update(ctx, auth, service.UpdateParams{Password: &weak})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})
}

func TestReorderRooms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, auth := env.newUser(t)

	a, err := env.rooms.CreateRoom(ctx, auth, "alpha")
	require.NoError(t, err)
	b, err := env.rooms.CreateRoom(ctx, auth, "beta")
	require.NoError(t, err)
	c, err := env.rooms.CreateRoom(ctx, auth, "gamma")
	require.NoError(t, err)

	t.Run("missing a room", func(t *testing.T) {
		err := env.users.ReorderRooms(ctx, auth, []uint{a.ID, b.ID})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("duplicated room", func(t *testing.T) {
		err := env.users.ReorderRooms(ctx, auth, []uint{a.ID, a.ID, b.ID})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("foreign room", func(t *testing.T) {
		err := env.users.ReorderRooms(ctx, auth, []uint{a.ID, b.ID, 99999})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("exact permutation saves", func(t *testing.T) {
		require.NoError(t, env.users.ReorderRooms(ctx, auth, []uint{c.ID, a.ID, b.ID}))

		rooms, err := env.rooms.ListRooms(ctx, auth)
		require.NoError(t, err)
		require.Len(t, rooms, 3)
		assert.Equal(t, c.ID, rooms[0].ID)
		assert.Equal(t, a.ID, rooms[1].ID)
		assert.Equal(t, b.ID, rooms[2].ID)
	})
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)
	env.befriend(t, alice.ID, bob.ID)

	owned, err := env.rooms.CreateRoom(ctx, aliceAuth, "alices-room")
	require.NoError(t, err)
	dm, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
	require.NoError(t, err)

	// Alice is also a plain member of Bob's room.
	bobsRoom, err := env.rooms.CreateRoom(ctx, bobAuth, "bobs-room")
	require.NoError(t, err)
	invite, err := env.invites.Create(ctx, bobAuth, bobsRoom.ID)
	require.NoError(t, err)
	_, err = env.rooms.JoinRoom(ctx, aliceAuth, invite.Code)
	require.NoError(t, err)

	_, err = env.notes.Upsert(ctx, bobAuth, alice.ID, "about alice")
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, aliceAuth))

	t.Run("account is gone", func(t *testing.T) {
		_, err := env.users.GetUser(ctx, alice.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("owned room is gone", func(t *testing.T) {
		_, err := env.rooms.GetRoom(ctx, bobAuth, owned.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("orphaned DM is gone", func(t *testing.T) {
		_, err := env.rooms.GetRoom(ctx, bobAuth, dm.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("membership in other rooms is gone", func(t *testing.T) {
		members, err := env.rooms.GetRoomMembers(ctx, bobAuth, bobsRoom.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, bob.ID, members[0].ID)
	})

	t.Run("friendships are gone", func(t *testing.T) {
		list, err := env.friendships.List(ctx, bobAuth)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("notes about the user are gone", func(t *testing.T) {
		list, err := env.notes.List(ctx, bobAuth)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("sessions are revoked", func(t *testing.T) {
		sessions, err := env.sessions.GetSessions(ctx, aliceAuth)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, service.RegisterParams{
		Username: "pending",
		Email:    "pending@example.com",
		Password: "ValidPass123!",
	})
	require.NoError(t, err)

	token, err := env.users.EmailVerificationToken(user.ID)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		err := env.users.VerifyEmail(ctx, "garbage")
		assert.Equal(t, models.CodeInvalidCredential, models.ErrorCode(err))
	})

	t.Run("valid token verifies", func(t *testing.T) {
		require.NoError(t, env.users.VerifyEmail(ctx, token))
		got, err := env.users.GetSelf(ctx, models.AuthContext{UserID: user.ID})
		require.NoError(t, err)
		assert.True(t, got.Verified)
	})

	t.Run("verifying twice is harmless", func(t *testing.T) {
		assert.NoError(t, env.users.VerifyEmail(ctx, token))
	})
}

func TestReapUnverified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A stale unverified account, a fresh unverified one, and a verified
	// one of the same age.
	stale, err := env.factory.CreateUser(func(u *models.User) {
		u.Verified = false
		u.CreatedAt = time.Now().Add(-48 * time.Hour)
	})
	require.NoError(t, err)
	fresh, err := env.factory.CreateUser(func(u *models.User) {
		u.Verified = false
	})
	require.NoError(t, err)
	veteran, err := env.factory.CreateUser(func(u *models.User) {
		u.CreatedAt = time.Now().Add(-48 * time.Hour)
	})
	require.NoError(t, err)

	reaped, err := env.users.ReapUnverified(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	_, err = env.users.GetUser(ctx, stale.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = env.users.GetUser(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = env.users.GetUser(ctx, veteran.ID)
	assert.NoError(t, err)
}
