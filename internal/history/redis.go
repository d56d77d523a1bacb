package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const keyPrefix = "hiragana:history:"

type Redis struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

var _ Store = (*Redis)(nil)

// OpenRedis connects to url and checks the connection.
func OpenRedis(ctx context.Context, url string, limit int, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, multierr.Append(fmt.Errorf("ping redis: %w", err), rdb.Close())
	}
	return NewRedis(rdb, limit, ttl), nil
}

func NewRedis(rdb *redis.Client, limit int, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, ttl: ttl}
}

func (s *Redis) key(lobby string) string { return keyPrefix + lobby }

func (s *Redis) Record(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.key(rec.Lobby)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		if s.limit > 0 {
			pipe.LTrim(ctx, key, 0, int64(s.limit-1))
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record round %s: %w", rec.RoundID, err)
	}
	return nil
}

func (s *Redis) List(ctx context.Context, lobby string, limit int) ([]Record, error) {
	stop := int64(-1)
	if n := clampLimit(limit, s.limit); n > 0 {
		stop = int64(n - 1)
	}
	raws, err := s.rdb.LRange(ctx, s.key(lobby), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", lobby, err)
	}
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", lobby, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Redis) Close() error { return s.rdb.Close() }
