package service_test

import (
	"context"
	"testing"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, auth := env.newUser(t)

	room, err := env.rooms.CreateRoom(ctx, auth, "doomed")
	require.NoError(t, err)
	channels, err := env.channels.ListByRoom(ctx, auth, room.ID)
	require.NoError(t, err)
	msg, err := env.messages.Publish(ctx, auth, channels[0].ID, "going down with the ship")
	require.NoError(t, err)
	invite, err := env.invites.Create(ctx, auth, room.ID)
	require.NoError(t, err)

	env.cascade.CascadeRoom(ctx, room.ID)

	_, err = env.roomRepo.GetByID(ctx, room.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = env.channelRepo.GetByID(ctx, channels[0].ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = env.messageRepo.GetByID(ctx, msg.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = env.inviteRepo.GetByCode(ctx, invite.Code)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	var memberships int64
	require.NoError(t, env.db.Model(&models.RoomMembership{}).
		Where("room_id = ?", room.ID).Count(&memberships).Error)
	assert.Zero(t, memberships)

	// Cascades are re-runnable: a second pass over the same room finds
	// nothing and changes nothing.
	env.cascade.CascadeRoom(ctx, room.ID)
}

func TestCascadeUserLeavesOthersAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.newUser(t)
	bob, bobAuth := env.newUser(t)
	carol, _ := env.newUser(t)

	env.befriend(t, alice.ID, bob.ID)
	env.befriend(t, bob.ID, carol.ID)

	room, err := env.rooms.CreateRoom(ctx, bobAuth, "bobs")
	require.NoError(t, err)

	env.cascade.CascadeUser(ctx, alice.ID)

	// Bob's world is untouched apart from the shared friendship.
	_, err = env.roomRepo.GetByID(ctx, room.ID)
	assert.NoError(t, err)
	list, err := env.friendships.List(ctx, bobAuth)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, carol.ID, list[0].FriendID)
}
