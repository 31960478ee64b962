package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"

	"pulse/internal/observability"

	"github.com/redis/go-redis/v9"
)

const eventsChannel = "pulse:events"

// EventDelivery is the pub/sub shape of a fanned-out event: the event name,
// its audience (a list of userIDs, or a single sessionID), and the payload.
type EventDelivery struct {
	Event     string      `json:"event"`
	UserIDs   []uint      `json:"userIDs,omitempty"`
	SessionID uint        `json:"sessionID,omitempty"`
	Data      interface{} `json:"data"`
}

// Notifier publishes event deliveries into Redis so every process's hub can
// route them to its local connections.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends an event delivery to the shared events channel.
func (n *Notifier) Publish(ctx context.Context, delivery EventDelivery) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(delivery)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, eventsChannel, payload).Err()
}

// StartSubscriber subscribes to the events channel and calls onDelivery for
// each incoming event until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onDelivery func(EventDelivery)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, eventsChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					var delivery EventDelivery
					if err := json.Unmarshal([]byte(msg.Payload), &delivery); err != nil {
						log.Printf("invalid event delivery payload: %v", err)
						return
					}
					onDelivery(delivery)
				}()
			}
		}
	}()

	return nil
}

// Router is the emit surface handed to services. With Redis available events
// travel through the Notifier (and reach this process's hub via its
// subscription); without it they go straight to the local hub.
type Router struct {
	hub      *Hub
	notifier *Notifier
}

// NewRouter wires a Router over the hub and an optional notifier.
func NewRouter(hub *Hub, notifier *Notifier) *Router {
	if notifier != nil && notifier.rdb == nil {
		notifier = nil
	}
	return &Router{hub: hub, notifier: notifier}
}

// EmitToUsers routes an event to every live connection of the audience.
// Delivery failures never propagate to the originating mutation.
func (r *Router) EmitToUsers(userIDs []uint, event string, payload interface{}) {
	if len(userIDs) == 0 {
		return
	}
	if r.notifier != nil {
		if err := r.notifier.Publish(context.Background(), EventDelivery{
			Event: event, UserIDs: userIDs, Data: payload,
		}); err != nil {
			observability.RedisErrors.WithLabelValues("publish").Inc()
			log.Printf("event publish failed (%s): %v", event, err)
		}
		return
	}
	r.hub.EmitToUsers(userIDs, event, payload)
}

// EmitToSession routes an event to a single session's connections.
func (r *Router) EmitToSession(sessionID uint, event string, payload interface{}) {
	if r.notifier != nil {
		if err := r.notifier.Publish(context.Background(), EventDelivery{
			Event: event, SessionID: sessionID, Data: payload,
		}); err != nil {
			observability.RedisErrors.WithLabelValues("publish").Inc()
			log.Printf("event publish failed (%s): %v", event, err)
		}
		return
	}
	r.hub.EmitToSession(sessionID, event, payload)
}
