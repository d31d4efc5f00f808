package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/model"
)

// KeyPrefix namespaces memory lists in Redis.
const KeyPrefix = "haithe:memory:"

// RedisStore keeps every window in a Redis list so that all replicas see the
// same history.
type RedisStore struct {
	client redis.UniversalClient
	size   int
}

// DialRedis connects to cfg.Addr and pings the server.
func DialRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisStore returns a store over client. Non-positive sizes use
// DefaultWindow.
func NewRedisStore(client redis.UniversalClient, size int) *RedisStore {
	if size <= 0 {
		size = DefaultWindow
	}
	return &RedisStore{client: client, size: size}
}

// GetOrCreate implements Store. Lists are created lazily by the first Append.
func (s *RedisStore) GetOrCreate(key string) Window {
	return &redisWindow{client: s.client, key: KeyPrefix + key, size: s.size}
}

type redisWindow struct {
	client redis.UniversalClient
	key    string
	size   int
}

func (w *redisWindow) Snapshot(ctx context.Context) ([]model.Message, error) {
	raw, err := w.client.LRange(ctx, w.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read memory %s: %w", w.key, err)
	}
	out := make([]model.Message, 0, len(raw))
	for _, item := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode memory %s: %w", w.key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (w *redisWindow) Append(ctx context.Context, messages ...model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]any, len(messages))
	for i, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode memory: %w", err)
		}
		values[i] = b
	}
	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, w.key, values...)
		p.LTrim(ctx, w.key, int64(-w.size), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append memory %s: %w", w.key, err)
	}
	return nil
}
