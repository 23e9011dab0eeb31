package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RedisSequence hands out strictly increasing ids with INCR on one key.
// INCR is atomic on the server, so concurrent receivers never share an id.
type RedisSequence struct {
	client redis.Cmdable
	key    string
}

func NewRedisSequence(client redis.Cmdable, key string) *RedisSequence {
	return &RedisSequence{client: client, key: key}
}

func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", s.key, err)
	}
	return n, nil
}

// raiseScript sets KEYS[1] to ARGV[1] unless it already holds a larger value.
var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
	redis.call('SET', KEYS[1], ARGV[1])
	return floor
end
return cur
`)

// EnsureAbove moves the counter up to floor so the next id is floor+1 at the
// earliest. A counter already past floor is left alone.
func (s *RedisSequence) EnsureAbove(ctx context.Context, floor int64) error {
	if err := raiseScript.Run(ctx, s.client, []string{s.key}, floor).Err(); err != nil {
		return fmt.Errorf("redis raise %s to %d: %w", s.key, floor, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a primary key or unique
// constraint failure from either supported database.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
	}
	return false
}
