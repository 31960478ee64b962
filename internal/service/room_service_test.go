package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "lounge")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, room.CreatorID)
	assert.False(t, room.DM)

	// The creator is the sole member and gets a default channel.
	members, err := env.rooms.GetRoomMembers(ctx, aliceAuth, room.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].ID)

	channels, err := env.channels.ListByRoom(ctx, aliceAuth, room.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, service.DefaultChannelName, channels[0].Name)

	t.Run("empty name", func(t *testing.T) {
		_, err := env.rooms.CreateRoom(ctx, aliceAuth, "")
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})
}

func TestCreateRoomCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, auth := env.newUser(t)

	for i := 1; i < models.MaxRoomsPerUser; i++ {
		_, err := env.rooms.CreateRoom(ctx, auth, fmt.Sprintf("room-%d", i))
		require.NoError(t, err)
	}
	_, err := env.rooms.CreateRoom(ctx, auth, "last")
	require.NoError(t, err)

	_, err = env.rooms.CreateRoom(ctx, auth, "one-too-many")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
}

func TestUpdateRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	_, bobAuth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "lounge")
	require.NoError(t, err)

	env.emitter.Reset()
	updated, err := env.rooms.UpdateRoom(ctx, aliceAuth, room.ID, service.RoomParams{
		Name:       "den",
		ProfilePic: "https://cdn.example.com/den.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "den", updated.Name)
	assert.Equal(t, "https://cdn.example.com/den.png", updated.ProfilePic)

	fetched, err := env.rooms.GetRoom(ctx, aliceAuth, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "den", fetched.Name)

	updates := env.emitter.ByEvent(notifications.EventRoomsUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, []uint{alice.ID}, updates[0].UserIDs)

	t.Run("non-owner", func(t *testing.T) {
		_, err := env.rooms.UpdateRoom(ctx, bobAuth, room.ID, service.RoomParams{Name: "mine now"})
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("bad name", func(t *testing.T) {
		_, err := env.rooms.UpdateRoom(ctx, aliceAuth, room.ID, service.RoomParams{Name: strings.Repeat("x", 65)})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("dm rooms are fixed", func(t *testing.T) {
		carol, carolAuth := env.newUser(t)
		env.befriend(t, alice.ID, carol.ID)
		dm, err := env.rooms.CreateDM(ctx, aliceAuth, carol.ID)
		require.NoError(t, err)

		_, err = env.rooms.UpdateRoom(ctx, carolAuth, dm.ID, service.RoomParams{Name: "renamed"})
		assert.Equal(t, models.CodeInvalidState, models.ErrorCode(err))
	})
}

func TestCreateDM(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)

	t.Run("without a friendship", func(t *testing.T) {
		_, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("with a pending friendship", func(t *testing.T) {
		f, err := env.friendships.Create(ctx, aliceAuth, bob.Username)
		require.NoError(t, err)
		_, err = env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

		_, err = env.friendships.Accept(ctx, bobAuth, f.ID)
		require.NoError(t, err)
	})

	t.Run("with an accepted friendship", func(t *testing.T) {
		env.emitter.Reset()
		dm, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
		require.NoError(t, err)
		assert.True(t, dm.DM)

		creates := env.emitter.ByEvent(notifications.EventDMsCreate)
		require.Len(t, creates, 1)
		assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, creates[0].UserIDs)
	})

	t.Run("second DM for the pair, either direction", func(t *testing.T) {
		_, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
		_, err = env.rooms.CreateDM(ctx, bobAuth, alice.ID)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.rooms.CreateDM(ctx, aliceAuth, 99999)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})
}

func TestRoomVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, aliceAuth := env.newUser(t)
	_, bobAuth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "private")
	require.NoError(t, err)

	_, err = env.rooms.GetRoom(ctx, bobAuth, room.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	_, err = env.rooms.GetRoomMembers(ctx, bobAuth, room.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
}

func TestJoinAndLeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "lounge")
	require.NoError(t, err)
	invite, err := env.invites.Create(ctx, aliceAuth, room.ID)
	require.NoError(t, err)

	t.Run("bad code", func(t *testing.T) {
		_, err := env.rooms.JoinRoom(ctx, bobAuth, "no-such")
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("join by code", func(t *testing.T) {
		env.emitter.Reset()
		joined, err := env.rooms.JoinRoom(ctx, bobAuth, invite.Code)
		require.NoError(t, err)
		assert.Equal(t, room.ID, joined.ID)

		joins := env.emitter.ByEvent(notifications.EventRoomsJoin)
		require.Len(t, joins, 1)
		assert.Contains(t, joins[0].UserIDs, bob.ID)
	})

	t.Run("joining twice", func(t *testing.T) {
		_, err := env.rooms.JoinRoom(ctx, bobAuth, invite.Code)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		err := env.rooms.LeaveRoom(ctx, aliceAuth, room.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("member leaves", func(t *testing.T) {
		require.NoError(t, env.rooms.LeaveRoom(ctx, bobAuth, room.ID))
		_, err := env.rooms.GetRoom(ctx, bobAuth, room.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("non-member cannot leave", func(t *testing.T) {
		err := env.rooms.LeaveRoom(ctx, bobAuth, room.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})
}

func TestRemoveRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, aliceAuth := env.newUser(t)
	_, bobAuth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, aliceAuth, "doomed")
	require.NoError(t, err)
	channels, err := env.channels.ListByRoom(ctx, aliceAuth, room.ID)
	require.NoError(t, err)
	msg, err := env.messages.Publish(ctx, aliceAuth, channels[0].ID, "last words")
	require.NoError(t, err)

	t.Run("only the owner", func(t *testing.T) {
		err := env.rooms.RemoveRoom(ctx, bobAuth, room.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("owner removal cascades", func(t *testing.T) {
		require.NoError(t, env.rooms.RemoveRoom(ctx, aliceAuth, room.ID))

		_, err := env.rooms.GetRoom(ctx, aliceAuth, room.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
		_, err = env.channelRepo.GetByID(ctx, channels[0].ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
		_, err = env.messageRepo.GetByID(ctx, msg.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})
}

func TestRemoveDMGoesAwayForBoth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)
	env.befriend(t, alice.ID, bob.ID)

	dm, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
	require.NoError(t, err)

	// Bob did not create the DM but may remove it.
	env.emitter.Reset()
	require.NoError(t, env.rooms.RemoveRoom(ctx, bobAuth, dm.ID))

	deletes := env.emitter.ByEvent(notifications.EventDMsDeleteOne)
	require.Len(t, deletes, 1)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, deletes[0].UserIDs)

	_, err = env.rooms.GetRoom(ctx, aliceAuth, dm.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestDMsCannotBeJoinedOrLeft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, _ := env.newUser(t)
	env.befriend(t, alice.ID, bob.ID)

	dm, err := env.rooms.CreateDM(ctx, aliceAuth, bob.ID)
	require.NoError(t, err)

	err = env.rooms.LeaveRoom(ctx, aliceAuth, dm.ID)
	assert.Equal(t, models.CodeInvalidState, models.ErrorCode(err))

	_, err = env.invites.Create(ctx, aliceAuth, dm.ID)
	assert.Equal(t, models.CodeInvalidState, models.ErrorCode(err))
}
