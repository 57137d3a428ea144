package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/scramble/pkg/metrics"
)

const defaultKeyPrefix = "scramble"

// recordBestScript raises the stored score only when the new one is higher and
// refreshes the TTL either way. Returns {best, improved}.
//
//nolint:gochecknoglobals // compiled once
var recordBestScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '-1')
local score = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local improved = 0
if score > cur then
  redis.call('SET', KEYS[1], ARGV[1])
  cur = score
  improved = 1
end
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return {cur, improved}
`)

// RedisStore keeps best scores in Redis so they survive restarts.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(player string) string {
	return fmt.Sprintf("%s:best:%s", s.prefix, player)
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Best returns the stored best score for key.
func (s *RedisStore) Best(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	start := time.Now()
	defer func() { metrics.RecordScoreStoreLatency("best", msSince(start)) }()

	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get best score: %w", err)
	}
	best, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse best score %q: %w", val, err)
	}
	return best, nil
}

// RecordBest stores score if it beats the current best.
func (s *RedisStore) RecordBest(ctx context.Context, key string, score int) (int, bool, error) {
	if err := validate(key, score); err != nil {
		return 0, false, err
	}
	start := time.Now()
	defer func() { metrics.RecordScoreStoreLatency("record_best", msSince(start)) }()

	res, err := recordBestScript.Run(ctx, s.rdb, []string{s.key(key)}, score, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("record best score: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("record best score: unexpected reply %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
