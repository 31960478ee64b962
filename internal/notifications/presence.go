package notifications

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"pulse/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "pulse:presence:"
	presenceTTL       = 60 * time.Second
	presenceHeartbeat = 20 * time.Second
)

// Presence tracks which users hold at least one live socket. With Redis the
// state is shared across processes through short-lived keys that a heartbeat
// keeps alive; a crashed process stops refreshing and its users age out.
type Presence struct {
	rdb *redis.Client

	mu    sync.RWMutex
	conns map[uint]int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence returns a tracker. Without a Redis client presence is
// process-local.
func NewPresence(rdb *redis.Client) *Presence {
	p := &Presence{
		rdb:    rdb,
		conns:  make(map[uint]int),
		stopCh: make(chan struct{}),
	}
	if rdb != nil {
		go p.heartbeatLoop()
	}
	return p
}

// Shared reports whether presence is visible to other processes.
func (p *Presence) Shared() bool {
	return p.rdb != nil
}

// Connected records a new socket for the user.
func (p *Presence) Connected(ctx context.Context, userID uint) {
	p.mu.Lock()
	p.conns[userID]++
	p.mu.Unlock()
	p.refresh(ctx, userID)
}

// Disconnected records a closed socket. The Redis key is left to age out so
// a quick reconnect does not flap the user offline.
func (p *Presence) Disconnected(_ context.Context, userID uint) {
	p.mu.Lock()
	if n := p.conns[userID] - 1; n > 0 {
		p.conns[userID] = n
	} else {
		delete(p.conns, userID)
	}
	p.mu.Unlock()
}

// IsOnline reports whether the user has a live socket in this process or,
// with Redis, anywhere.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.RLock()
	local := p.conns[userID] > 0
	p.mu.RUnlock()
	if local || p.rdb == nil {
		return local
	}

	n, err := p.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		observability.RedisErrors.WithLabelValues("presence").Inc()
		return false
	}
	return n > 0
}

// Stop ends the heartbeat. Remaining Redis keys age out on their own.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

func (p *Presence) refresh(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	if err := p.rdb.Set(ctx, presenceKey(userID), "1", presenceTTL).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("presence").Inc()
		log.Printf("presence refresh failed for user %d: %v", userID, err)
	}
}

func (p *Presence) heartbeatLoop() {
	ticker := time.NewTicker(presenceHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.mu.RLock()
			ids := make([]uint, 0, len(p.conns))
			for id := range p.conns {
				ids = append(ids, id)
			}
			p.mu.RUnlock()

			ctx := context.Background()
			for _, id := range ids {
				p.refresh(ctx, id)
			}
		}
	}
}

func presenceKey(userID uint) string {
	return presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
