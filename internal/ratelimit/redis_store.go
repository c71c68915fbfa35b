package ratelimit

import (
	"context"
	"errors"
	"time"

	"contact_service/internal/metrics"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	c *redis.Client
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})
	return &RedisStore{c: rdb}
}

func (r *RedisStore) Close() error { return r.c.Close() }

// operation label: get/set/incr/ttl
const (
	opGet  = "get"
	opSet  = "set"
	opIncr = "incr"
	opTTL  = "ttl"
)

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	metrics.IncRedisRequest(opGet)
	defer metrics.ObserveRedisDuration(opGet, time.Since(start))

	v, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		metrics.IncRedisError(opGet)
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	start := time.Now()
	metrics.IncRedisRequest(opSet)
	defer metrics.ObserveRedisDuration(opSet, time.Since(start))

	if err := r.c.SetEx(ctx, key, value, ttl).Err(); err != nil {
		metrics.IncRedisError(opSet)
		return err
	}
	return nil
}

func (r *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	metrics.IncRedisRequest(opIncr)
	defer metrics.ObserveRedisDuration(opIncr, time.Since(start))

	n, err := r.c.Incr(ctx, key).Result()
	if err != nil {
		metrics.IncRedisError(opIncr)
		return 0, err
	}
	return n, nil
}

func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	start := time.Now()
	metrics.IncRedisRequest(opTTL)
	defer metrics.ObserveRedisDuration(opTTL, time.Since(start))

	d, err := r.c.TTL(ctx, key).Result()
	if err != nil {
		metrics.IncRedisError(opTTL)
		return 0, err
	}
	return d, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *RedisStore) RawClient() *redis.Client { return r.c }
