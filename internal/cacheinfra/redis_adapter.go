package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Codec turns cached values into bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte) (any, error)
}

// RedisService stores values in Redis so several processes share one cache.
type RedisService struct {
	client    redis.UniversalClient
	codec     Codec
	scanCount int64
}

// NewRedisService wraps an existing client.
func NewRedisService(client redis.UniversalClient, codec Codec) *RedisService {
	return &RedisService{client: client, codec: codec, scanCount: 100}
}

// Get decodes the value under key. redis.Nil is a miss.
func (s *RedisService) Get(ctx context.Context, key string) (any, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	v, err := s.codec.Unmarshal(b)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set encodes and stores value. Forever maps to no expiry and a non-positive
// ttl is a no-op.
func (s *RedisService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl >= Forever {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *RedisService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// DeleteByPrefix scans for keys starting with prefix and deletes them in
// batches once the scan completes.
func (s *RedisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", s.scanCount).Iterator()

	var matched []string
	for iter.Next(ctx) {
		matched = append(matched, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", prefix, err)
	}

	for start := 0; start < len(matched); start += int(s.scanCount) {
		end := min(start+int(s.scanCount), len(matched))
		if err := s.Delete(ctx, matched[start:end]...); err != nil {
			return err
		}
	}
	return nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
