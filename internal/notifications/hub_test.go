package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case raw := <-c.Send:
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHubFanOutByUser(t *testing.T) {
	hub := NewHub()

	// Bob is connected on two devices, Alice on one.
	alice, err := hub.Register(1, 10, nil)
	require.NoError(t, err)
	bobPhone, err := hub.Register(2, 20, nil)
	require.NoError(t, err)
	bobLaptop, err := hub.Register(2, 21, nil)
	require.NoError(t, err)

	hub.EmitToUsers([]uint{1, 2}, "messages:new", map[string]string{"content": "hi"})

	// Every connection in the audience hears the event exactly once.
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, "messages:new", got[0].Event)
	}
}

func TestHubFanOutBySession(t *testing.T) {
	hub := NewHub()

	bobPhone, err := hub.Register(2, 20, nil)
	require.NoError(t, err)
	bobLaptop, err := hub.Register(2, 21, nil)
	require.NoError(t, err)

	hub.EmitToSession(20, "session:delete", nil)

	assert.Len(t, drain(t, bobPhone), 1)
	assert.Empty(t, drain(t, bobLaptop))
}

func TestHubEmitToAbsentAudience(t *testing.T) {
	hub := NewHub()

	// Nobody is connected; emitting must not block or panic.
	hub.EmitToUsers([]uint{1, 2, 3}, "rooms:create", nil)
	hub.EmitToSession(42, "session:delete", nil)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()

	client, err := hub.Register(1, 10, nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline(1))

	hub.UnregisterClient(client)
	assert.False(t, hub.IsOnline(1))

	hub.EmitToUsers([]uint{1}, "messages:new", nil)
	assert.Empty(t, drain(t, client))

	// Unregistering twice is harmless.
	hub.UnregisterClient(client)
}

func TestHubConnectionLimitPerUser(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, uint(100+i), nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, 999, nil)
	assert.Error(t, err)

	// Other users are unaffected.
	_, err = hub.Register(2, 1000, nil)
	assert.NoError(t, err)
}

func TestTrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, 10, nil)
	require.NoError(t, err)

	payload := Envelope{Event: "messages:new"}.Encode()
	for i := 0; i < cap(client.Send); i++ {
		client.TrySend(payload)
	}

	// The buffer is full; one more send drops instead of blocking.
	done := make(chan struct{})
	go func() {
		client.TrySend(payload)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TrySend blocked on a full buffer")
	}
	assert.Len(t, client.Send, cap(client.Send))
}

func TestEnvelopeEncode(t *testing.T) {
	raw := Envelope{Event: "notes:update", Data: map[string]int{"id": 7}}.Encode()
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"event":"notes:update","data":{"id":7}}`, string(raw))

	// Unmarshalable payloads drop rather than panic.
	assert.Nil(t, Envelope{Event: "bad", Data: make(chan int)}.Encode())
}
