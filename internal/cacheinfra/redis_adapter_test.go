package cacheinfra

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(b []byte) (any, error) {
	var v any
	err := json.Unmarshal(b, &v)
	return v, err
}

type failingCodec struct{}

func (failingCodec) Marshal(v any) ([]byte, error)   { return nil, errors.New("encode failed") }
func (failingCodec) Unmarshal(b []byte) (any, error) { return nil, errors.New("decode failed") }

func newRedis(t *testing.T, codec Codec) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisService(client, codec), mr
}

func TestRedisService_SetGet(t *testing.T) {
	service, mr := newRedis(t, jsonCodec{})
	ctx := context.Background()

	if err := service.Set(ctx, "item_data::id::1", "Boots", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := service.Get(ctx, "item_data::id::1")
	if err != nil || !ok || v != "Boots" {
		t.Fatalf("Get = %v, %v, %v", v, ok, err)
	}
	if ttl := mr.TTL("item_data::id::1"); ttl != time.Minute {
		t.Errorf("expected 1m TTL, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := service.Get(ctx, "item_data::id::1"); ok {
		t.Error("expected key to expire")
	}
}

func TestRedisService_ForeverAndZeroTTL(t *testing.T) {
	service, mr := newRedis(t, jsonCodec{})
	ctx := context.Background()

	_ = service.Set(ctx, "forever", 1, Forever)
	if ttl := mr.TTL("forever"); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}

	_ = service.Set(ctx, "never", 1, 0)
	if mr.Exists("never") {
		t.Error("zero TTL values must not be written")
	}
}

func TestRedisService_DeleteByPrefix(t *testing.T) {
	service, mr := newRedis(t, jsonCodec{})
	service.scanCount = 2
	ctx := context.Background()

	for _, key := range []string{"champion_data::a", "champion_data::b", "champion_data::c", "item_data::a"} {
		if err := service.Set(ctx, key, key, time.Hour); err != nil {
			t.Fatalf("Set(%s) failed: %v", key, err)
		}
	}

	if err := service.DeleteByPrefix(ctx, "champion_data::"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}
	for _, key := range []string{"champion_data::a", "champion_data::b", "champion_data::c"} {
		if mr.Exists(key) {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if !mr.Exists("item_data::a") {
		t.Error("expected other prefixes to survive")
	}
}

func TestRedisService_Errors(t *testing.T) {
	service, mr := newRedis(t, failingCodec{})
	ctx := context.Background()

	if err := service.Set(ctx, "k", 1, time.Minute); err == nil {
		t.Error("expected encode error")
	}

	_ = mr.Set("k", "garbage")
	if _, ok, err := service.Get(ctx, "k"); err == nil || ok {
		t.Errorf("expected decode error, got ok=%v err=%v", ok, err)
	}

	mr.Close()
	if _, _, err := service.Get(ctx, "k"); err == nil {
		t.Error("expected connection error")
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob(`a*b?[c]\`); got != `a\*b\?\[c\]\\` {
		t.Errorf("escapeGlob = %q", got)
	}
}
