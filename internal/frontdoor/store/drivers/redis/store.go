// Package redis stores each scope as one hash, so a multi-key write is a
// single HSET. Tab scopes carry a TTL that is refreshed on every write.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "frontdoor"

// DefaultTabTTL bounds how long an abandoned tab scope lingers.
const DefaultTabTTL = 24 * time.Hour

type Store struct {
	rdb    redis.UniversalClient
	prefix string
	tabTTL time.Duration
}

var _ store.ScopedStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithTabTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.tabTTL = ttl
		}
	}
}

func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: defaultPrefix, tabTTL: DefaultTabTTL}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dial parses a redis:// URL and connects.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Store, error) {
	o, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(o)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Join(errors.New("redis: ping failed"), err)
	}
	return New(rdb, opts...), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Bucket(scope string) store.Bucket {
	b := &bucket{rdb: s.rdb, key: s.prefix + ":" + scope}
	if strings.HasPrefix(scope, store.TabScopePrefix) {
		b.ttl = s.tabTTL
	}
	return b
}

type bucket struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

func (b *bucket) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.rdb.HGet(ctx, b.key, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return v, true, nil
}

func (b *bucket) Put(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, k, v)
	}
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, b.key, pairs...)
		if b.ttl > 0 {
			p.Expire(ctx, b.key, b.ttl)
		}
		return nil
	})
	return err
}

func (b *bucket) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.rdb.HDel(ctx, b.key, keys...).Err()
}
