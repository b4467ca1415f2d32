package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dshills/ecoscore/internal/ledger"
)

// DefaultTTL is how long an idle Redis-backed session lives.
const DefaultTTL = 2 * time.Hour

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	// TTL expires idle sessions; every write refreshes it.
	TTL          time.Duration
	HistoryLimit int
	Prefix       string
	// OnEnd is called with the ID of every deleted session. Expiry happens
	// inside Redis and is not reported.
	OnEnd func(id string)
	Now   func() time.Time
}

// RedisStore keeps sessions in Redis so several server processes can share
// them. The challenge total is a Redis counter, so concurrent acknowledgments
// are serialized by INCRBY.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	historyLimit int
	prefix       string
	onEnd        func(id string)
	now          func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ecoscore"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, ttl: ttl, historyLimit: limit, prefix: prefix, onEnd: cfg.OnEnd, now: now}
}

// key returns the Redis key for one part of a session. The meta part holds
// the creation time and marks the session as live.
func (r *RedisStore) key(id, part string) string {
	if part == "" {
		return fmt.Sprintf("%s:session:%s", r.prefix, id)
	}
	return fmt.Sprintf("%s:session:%s:%s", r.prefix, id, part)
}

func (r *RedisStore) metaKey(id string) string {
	return r.key(id, "")
}

func (r *RedisStore) Create(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{ID: uuid.NewString(), CreatedAt: r.now().UTC(), History: []Entry{}}
	created, err := snap.CreatedAt.MarshalText()
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.client.Set(ctx, r.metaKey(snap.ID), created, r.ttl).Err(); err != nil {
		return Snapshot{}, fmt.Errorf("session.RedisStore.Create: %w", err)
	}
	return snap, nil
}

// touch fails with ErrSessionNotFound when the session has expired and
// otherwise extends the lifetime of every key the session owns.
func (r *RedisStore) touch(ctx context.Context, id string) error {
	var meta *redis.BoolCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		meta = pipe.Expire(ctx, r.metaKey(id), r.ttl)
		pipe.Expire(ctx, r.key(id, "total"), r.ttl)
		pipe.Expire(ctx, r.key(id, "history"), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session.RedisStore: %w", err)
	}
	if !meta.Val() {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	created, err := r.client.Get(ctx, r.metaKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("session.RedisStore.Get: %w", err)
	}
	snap := Snapshot{ID: id, History: []Entry{}}
	if err := snap.CreatedAt.UnmarshalText([]byte(created)); err != nil {
		return Snapshot{}, fmt.Errorf("session.RedisStore.Get: created_at: %w", err)
	}

	total, err := r.client.Get(ctx, r.key(id, "total")).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("session.RedisStore.Get: total: %w", err)
	}
	snap.Total = total

	raw, err := r.client.LRange(ctx, r.key(id, "history"), 0, -1).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("session.RedisStore.Get: history: %w", err)
	}
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return Snapshot{}, fmt.Errorf("session.RedisStore.Get: history entry: %w", err)
		}
		snap.History = append(snap.History, e)
	}
	return snap, nil
}

func (r *RedisStore) Acknowledge(ctx context.Context, id string, points int) (int, error) {
	if err := ledger.CheckAward(points); err != nil {
		return 0, err
	}
	if err := r.touch(ctx, id); err != nil {
		return 0, err
	}
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrBy(ctx, r.key(id, "total"), int64(points))
		pipe.Expire(ctx, r.key(id, "total"), r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session.RedisStore.Acknowledge: %w", err)
	}
	return int(incr.Val()), nil
}

func (r *RedisStore) Reset(ctx context.Context, id string) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(id, "total")).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Reset: %w", err)
	}
	return nil
}

func (r *RedisStore) Save(ctx context.Context, id string, e Entry) error {
	if err := r.touch(ctx, id); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("session.RedisStore.Save: %w", err)
	}
	key := r.key(id, "history")
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-r.historyLimit), -1)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session.RedisStore.Save: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.metaKey(id), r.key(id, "total"), r.key(id, "history")).Result()
	if err != nil {
		return fmt.Errorf("session.RedisStore.Delete: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	if r.onEnd != nil {
		r.onEnd(id)
	}
	return nil
}
