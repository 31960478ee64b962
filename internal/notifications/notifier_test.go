package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNotifierRoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewNotifier(rdb)
	got := make(chan EventDelivery, 1)
	require.NoError(t, notifier.StartSubscriber(ctx, func(d EventDelivery) {
		got <- d
	}))

	// Subscription setup races the publish without a short settle.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, notifier.Publish(ctx, EventDelivery{
		Event:   "messages:new",
		UserIDs: []uint{1, 2},
		Data:    map[string]string{"content": "hello"},
	}))

	select {
	case d := <-got:
		assert.Equal(t, "messages:new", d.Event)
		assert.Equal(t, []uint{1, 2}, d.UserIDs)
		assert.Zero(t, d.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never arrived")
	}
}

func TestNotifierNilRedisDegrades(t *testing.T) {
	notifier := NewNotifier(nil)
	ctx := context.Background()

	assert.NoError(t, notifier.Publish(ctx, EventDelivery{Event: "notes:update"}))
	assert.NoError(t, notifier.StartSubscriber(ctx, func(EventDelivery) {
		t.Fatal("no deliveries expected without Redis")
	}))
}

func TestRouterFallsBackToLocalHub(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, 10, nil)
	require.NoError(t, err)

	// A notifier without Redis is discarded, so events go straight to the
	// local hub.
	router := NewRouter(hub, NewNotifier(nil))
	router.EmitToUsers([]uint{1}, "settings:update", nil)

	assert.Len(t, drain(t, client), 1)
}

func TestRouterThroughRedisReachesHub(t *testing.T) {
	rdb := testRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	client, err := hub.Register(7, 70, nil)
	require.NoError(t, err)

	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))
	time.Sleep(50 * time.Millisecond)

	router := NewRouter(hub, notifier)
	router.EmitToSession(70, "session:delete", nil)

	deadline := time.After(2 * time.Second)
	for {
		if got := drain(t, client); len(got) > 0 {
			assert.Equal(t, "session:delete", got[0].Event)
			return
		}
		select {
		case <-deadline:
			t.Fatal("event never reached the hub")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
