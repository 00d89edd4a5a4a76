package overlay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the RedisStore writes.
const DefaultRedisPrefix = "overlay-studio:"

// RedisStore keeps each overlay as a JSON document under its own key and
// tracks the live ids in a set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a Store backed by client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) overlayKey(id string) string {
	return s.prefix + "overlay:" + id
}

func (s *RedisStore) idsKey() string {
	return s.prefix + "overlays"
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (Overlay, bool, error) {
	data, err := s.client.Get(ctx, s.overlayKey(id)).Bytes()
	if err == redis.Nil {
		return Overlay{}, false, nil
	}
	if err != nil {
		return Overlay{}, false, fmt.Errorf("failed to get overlay from Redis: %w", err)
	}

	var o Overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return Overlay{}, false, fmt.Errorf("failed to unmarshal overlay: %w", err)
	}
	return o, true, nil
}

// Put implements Store.Put.
func (s *RedisStore) Put(ctx context.Context, o Overlay) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal overlay: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.overlayKey(o.ID), data, 0)
		pipe.SAdd(ctx, s.idsKey(), o.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store overlay in Redis: %w", err)
	}
	return nil
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.overlayKey(id))
		pipe.SRem(ctx, s.idsKey(), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete overlay from Redis: %w", err)
	}
	return del.Val() > 0, nil
}

// List implements Store.List. Ids whose document has gone missing are
// skipped.
func (s *RedisStore) List(ctx context.Context) ([]Overlay, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlay ids: %w", err)
	}
	if len(ids) == 0 {
		return []Overlay{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.overlayKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load overlays: %w", err)
	}

	out := make([]Overlay, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var o Overlay
		if err := json.Unmarshal([]byte(str), &o); err != nil {
			return nil, fmt.Errorf("failed to unmarshal overlay: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

// Ping implements Store.Ping.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
