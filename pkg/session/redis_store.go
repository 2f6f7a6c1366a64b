package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "gofocus:session:"
	redisIndexKey  = "gofocus:sessions"
)

// RedisStore implements Store on Redis. Each session is a JSON string key;
// a sorted set scored by start time orders the listing.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds connection settings for RedisStore
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// OpenRedis connects to Redis and verifies the connection
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, d *Data) error {
	if d.ID == "" {
		return ErrInvalid
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", d.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(d.ID), data, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(d.StartTime), Member: d.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: save %s: %w", d.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &d, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]*Data, error) {
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("session: list index: %w", err)
	}
	if len(ids) == 0 {
		return []*Data{}, nil
	}

	// Use pipeline for batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	out := make([]*Data, 0, len(ids))
	for i, cmd := range cmds {
		raw, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue // index entry without a body
		}
		if err != nil {
			return nil, fmt.Errorf("session: list %s: %w", ids[i], err)
		}
		var d Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("session: decode %s: %w", ids[i], err)
		}
		out = append(out, &d)
	}
	return out, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, sessionKey(id))
	pipe.ZRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
