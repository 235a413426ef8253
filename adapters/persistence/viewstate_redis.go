package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/pkg/logger"
)

const maxUpdateAttempts = 8

var ErrViewContention = errors.New("view state changed concurrently too many times")

type redisViewStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

// NewRedisViewStore keeps view state under "view:<key>" with a sliding TTL.
// Updates use WATCH/MULTI so concurrent requests on one view never lose
// each other's writes.
func NewRedisViewStore(rdb *redis.Client, ttl time.Duration, log logger.Logger) service.ViewStore {
	return &redisViewStore{rdb: rdb, ttl: ttl, prefix: "view:", logger: log}
}

func (s *redisViewStore) Put(ctx context.Context, key string, state any) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	return s.rdb.Set(ctx, s.prefix+key, b, s.ttl).Err()
}

func (s *redisViewStore) Get(ctx context.Context, key string, state any) error {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return service.ErrViewGone
	}
	if err != nil {
		return err
	}
	resetState(state)
	return json.Unmarshal(b, state)
}

func (s *redisViewStore) Update(ctx context.Context, key string, state any, fn func() error) error {
	k := s.prefix + key
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			b, err := tx.Get(ctx, k).Bytes()
			if errors.Is(err, redis.Nil) {
				return service.ErrViewGone
			}
			if err != nil {
				return err
			}
			resetState(state)
			if err := json.Unmarshal(b, state); err != nil {
				return fmt.Errorf("unmarshal view state: %w", err)
			}
			if err := fn(); err != nil {
				return err
			}
			out, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("marshal view state: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, k, out, s.ttl)
				return nil
			})
			return err
		}, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrViewContention
}

func (s *redisViewStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// resetState zeroes *state so a retried load never sees leftovers.
func resetState(state any) {
	v := reflect.ValueOf(state)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}
