package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterKeyPrefix namespaces limiter keys in the shared Redis instance.
const CounterKeyPrefix = "ratelimit:"

// CounterStore is the shared time-ordered event store behind the sliding
// window. Implementations must be safe for concurrent callers; multiple
// process instances share one store so limits hold service-wide.
type CounterStore interface {
	// ReserveEvent purges events older than cutoff, records a new event at
	// the given time and returns the resulting count including it, all as
	// one atomic step against the store. Concurrent reservations on one key
	// must observe distinct counts.
	ReserveEvent(ctx context.Context, key string, cutoff, at time.Time, window time.Duration) (int64, error)
	// ReleaseEvent removes the event recorded at the given time, handing an
	// over-budget reservation back so denials never consume budget.
	ReleaseEvent(ctx context.Context, key string, at time.Time) error
	// Count returns the current event count and the oldest event time
	// without mutating the window. Stale reads are acceptable.
	Count(ctx context.Context, key string) (count int64, oldest time.Time, err error)
}

// RedisCounterStore keeps each window as a sorted set scored by event time in
// milliseconds. Purge, insert and count run in one transactional pipeline so
// racing callers cannot all observe the pre-insert count.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a store over the given Redis client.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) ReserveEvent(ctx context.Context, key string, cutoff, at time.Time, window time.Duration) (int64, error) {
	rkey := CounterKeyPrefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", fmt.Sprintf("%d", cutoff.UnixMilli()))
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: eventMember(at),
	})
	countCmd := pipe.ZCard(ctx, rkey)
	// Keep the key a little past the window so counters age out on their own.
	pipe.Expire(ctx, rkey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return countCmd.Val(), nil
}

func (s *RedisCounterStore) ReleaseEvent(ctx context.Context, key string, at time.Time) error {
	rkey := CounterKeyPrefix + key
	return s.client.ZRem(ctx, rkey, eventMember(at)).Err()
}

func (s *RedisCounterStore) Count(ctx context.Context, key string) (int64, time.Time, error) {
	rkey := CounterKeyPrefix + key

	pipe := s.client.TxPipeline()
	countCmd := pipe.ZCard(ctx, rkey)
	oldestCmd := pipe.ZRangeWithScores(ctx, rkey, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	var oldest time.Time
	if entries := oldestCmd.Val(); len(entries) > 0 {
		oldest = time.UnixMilli(int64(entries[0].Score))
	}
	return countCmd.Val(), oldest, nil
}

func eventMember(at time.Time) string {
	return fmt.Sprintf("%d", at.UnixNano())
}

// MemoryCounterStore is an in-process store for tests and single-instance
// development runs. Production deployments share limits through Redis.
type MemoryCounterStore struct {
	mu     sync.Mutex
	events map[string][]time.Time
}

// NewMemoryCounterStore creates an empty in-memory store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{events: make(map[string][]time.Time)}
}

func (s *MemoryCounterStore) ReserveEvent(_ context.Context, key string, cutoff, at time.Time, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[key][:0]
	for _, event := range s.events[key] {
		if event.After(cutoff) {
			kept = append(kept, event)
		}
	}
	kept = append(kept, at)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Before(kept[j]) })
	s.events[key] = kept
	return int64(len(kept)), nil
}

func (s *MemoryCounterStore) ReleaseEvent(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events[key]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Equal(at) {
			s.events[key] = append(events[:i], events[i+1:]...)
			break
		}
	}
	if len(s.events[key]) == 0 {
		delete(s.events, key)
	}
	return nil
}

func (s *MemoryCounterStore) Count(_ context.Context, key string) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events[key]
	if len(events) == 0 {
		return 0, time.Time{}, nil
	}
	return int64(len(events)), events[0], nil
}
