package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// SturdycService keeps one sturdyc client per distinct TTL so that every
// alias of a value written with the same retention expires together.
type SturdycService struct {
	cfg     Config
	buckets *xsync.MapOf[time.Duration, *sturdyc.Client[any]]
	index   *xsync.MapOf[string, time.Duration]
}

// NewSturdycService validates cfg and creates the bucketed service.
// Buckets are created lazily on first write for a given TTL.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SturdycService{
		cfg:     cfg,
		buckets: xsync.NewMapOf[time.Duration, *sturdyc.Client[any]](),
		index:   xsync.NewMapOf[string, time.Duration](),
	}, nil
}

func (s *SturdycService) bucket(ttl time.Duration) *sturdyc.Client[any] {
	client, _ := s.buckets.LoadOrCompute(ttl, func() *sturdyc.Client[any] {
		return sturdyc.New[any](
			s.cfg.Capacity,
			s.cfg.NumShards,
			ttl,
			s.cfg.EvictionPercentage,
			s.cfg.ToSturdycOptions()...,
		)
	})
	return client
}

// Get returns the value stored under key. A key whose bucket evicted it is
// dropped from the index and reported as a miss.
func (s *SturdycService) Get(ctx context.Context, key string) (any, bool, error) {
	ttl, ok := s.index.Load(key)
	if !ok {
		return nil, false, nil
	}
	value, ok := s.bucket(ttl).Get(key)
	if !ok {
		s.forget(key, ttl)
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key. A non-positive ttl is a no-op. The index entry
// and the bucket write change together.
func (s *SturdycService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.index.Compute(key, func(previous time.Duration, loaded bool) (time.Duration, bool) {
		if loaded && previous != ttl {
			s.bucket(previous).Delete(key)
		}
		s.bucket(ttl).Set(key, value)
		return ttl, false
	})
	return nil
}

// Delete removes the given keys from whichever bucket holds them.
func (s *SturdycService) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.index.Compute(key, func(ttl time.Duration, loaded bool) (time.Duration, bool) {
			if loaded {
				s.bucket(ttl).Delete(key)
			}
			return 0, true
		})
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix and drops index
// entries for keys the buckets have evicted.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.prune()
	var matched []string
	s.index.Range(func(key string, _ time.Duration) bool {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
		return true
	})
	return s.Delete(ctx, matched...)
}

// Size reports the number of keys still held by a bucket.
func (s *SturdycService) Size() int {
	s.prune()
	return s.index.Size()
}

// prune drops index entries whose bucket no longer holds the key, such as
// keys evicted for capacity.
func (s *SturdycService) prune() {
	live := make(map[time.Duration]map[string]struct{})
	s.buckets.Range(func(ttl time.Duration, client *sturdyc.Client[any]) bool {
		held := make(map[string]struct{}, client.Size())
		for _, key := range client.ScanKeys() {
			held[key] = struct{}{}
		}
		live[ttl] = held
		return true
	})
	s.index.Range(func(key string, ttl time.Duration) bool {
		if _, ok := live[ttl][key]; !ok {
			s.forget(key, ttl)
		}
		return true
	})
}

// forget removes key from the index if it is still indexed under ttl and its
// bucket no longer serves it. A concurrent Set wins.
func (s *SturdycService) forget(key string, ttl time.Duration) {
	s.index.Compute(key, func(current time.Duration, loaded bool) (time.Duration, bool) {
		if !loaded {
			return current, true
		}
		if current != ttl {
			return current, false
		}
		if _, ok := s.bucket(current).Get(key); ok {
			return current, false
		}
		return current, true
	})
}
