package service_test

import (
	"context"
	"testing"

	"pulse/internal/models"
	"pulse/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)

	f, err := env.friendships.Create(ctx, aliceAuth, bob.Username)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, f.CreatorID)
	assert.Equal(t, bob.ID, f.FriendID)
	assert.False(t, f.Accepted)

	// Both parties are told about the request.
	news := env.emitter.ByEvent(notifications.EventFriendshipNew)
	require.Len(t, news, 1)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, news[0].UserIDs)

	t.Run("unknown username", func(t *testing.T) {
		_, err := env.friendships.Create(ctx, aliceAuth, "nobody")
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("with yourself", func(t *testing.T) {
		_, err := env.friendships.Create(ctx, aliceAuth, alice.Username)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("duplicate same direction", func(t *testing.T) {
		_, err := env.friendships.Create(ctx, aliceAuth, bob.Username)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})

	t.Run("duplicate reversed direction", func(t *testing.T) {
		_, err := env.friendships.Create(ctx, bobAuth, alice.Username)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	})
}

func TestAcceptFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)

	f, err := env.friendships.Create(ctx, aliceAuth, bob.Username)
	require.NoError(t, err)

	t.Run("creator may not accept their own request", func(t *testing.T) {
		_, err := env.friendships.Accept(ctx, aliceAuth, f.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("invited party accepts", func(t *testing.T) {
		accepted, err := env.friendships.Accept(ctx, bobAuth, f.ID)
		require.NoError(t, err)
		assert.True(t, accepted.Accepted)
	})

	t.Run("accepting twice is invalid state", func(t *testing.T) {
		_, err := env.friendships.Accept(ctx, bobAuth, f.ID)
		assert.Equal(t, models.CodeInvalidState, models.ErrorCode(err))
	})
}

func TestRejectFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAuth := env.newUser(t)
	bob, bobAuth := env.newUser(t)

	f, err := env.friendships.Create(ctx, aliceAuth, bob.Username)
	require.NoError(t, err)

	t.Run("creator may not reject", func(t *testing.T) {
		err := env.friendships.Reject(ctx, aliceAuth, f.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("invited party rejects and the request is gone", func(t *testing.T) {
		require.NoError(t, env.friendships.Reject(ctx, bobAuth, f.ID))

		list, err := env.friendships.List(ctx, aliceAuth)
		require.NoError(t, err)
		assert.Empty(t, list)

		// Rejection clears the way for a fresh request.
		_, err = env.friendships.Create(ctx, bobAuth, alice.Username)
		assert.NoError(t, err)
	})
}

func TestRemoveFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.newUser(t)
	bob, bobAuth := env.newUser(t)
	_, carolAuth := env.newUser(t)

	f := env.befriend(t, alice.ID, bob.ID)

	t.Run("outsider may not remove", func(t *testing.T) {
		err := env.friendships.Remove(ctx, carolAuth, f.ID)
		assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	})

	t.Run("either party may remove", func(t *testing.T) {
		require.NoError(t, env.friendships.Remove(ctx, bobAuth, f.ID))

		list, err := env.friendships.List(ctx, bobAuth)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
