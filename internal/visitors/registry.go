package visitors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-firestore-estate/internal/utils"

	"github.com/redis/go-redis/v9"
)

// Registry remembers which visitors were already counted on a given day.
type Registry interface {
	// FirstVisit marks visitorID as seen on day and reports whether it had not been seen yet.
	FirstVisit(ctx context.Context, day, visitorID string) (bool, error)
	// Forget undoes FirstVisit, so the next visit of visitorID on day counts as first again.
	Forget(ctx context.Context, day, visitorID string) error
}

func seenKey(day, visitorID string) string {
	return fmt.Sprintf("visitors:seen:%s:%s", day, utils.Hash(visitorID))
}

type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Registry = (*RedisRegistry)(nil)

func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) FirstVisit(ctx context.Context, day, visitorID string) (bool, error) {
	created, err := r.client.SetNX(ctx, seenKey(day, visitorID), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("visitor registry: %w", err)
	}
	return created, nil
}

func (r *RedisRegistry) Forget(ctx context.Context, day, visitorID string) error {
	if err := r.client.Del(ctx, seenKey(day, visitorID)).Err(); err != nil {
		return fmt.Errorf("visitor registry: %w", err)
	}
	return nil
}

// MemoryRegistry keeps seen visitors in process memory, so counts are only unique per instance.
type MemoryRegistry struct {
	seen    map[string]time.Time // key: seenKey, value: expiry
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry(ttl time.Duration, maxSize int) *MemoryRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxSize <= 0 {
		maxSize = 100_000
	}

	return &MemoryRegistry{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (r *MemoryRegistry) FirstVisit(ctx context.Context, day, visitorID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := seenKey(day, visitorID)
	if expiry, ok := r.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}

	if len(r.seen) >= r.maxSize {
		r.evictLocked(now)
	}

	r.seen[key] = now.Add(r.ttl)
	return true, nil
}

func (r *MemoryRegistry) Forget(ctx context.Context, day, visitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, seenKey(day, visitorID))
	return nil
}

// evictLocked drops expired entries, or an arbitrary one when none has expired.
func (r *MemoryRegistry) evictLocked(now time.Time) {
	for k, expiry := range r.seen {
		if !now.Before(expiry) {
			delete(r.seen, k)
		}
	}

	if len(r.seen) < r.maxSize {
		return
	}
	for k := range r.seen {
		delete(r.seen, k)
		break
	}
}

func (r *MemoryRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
