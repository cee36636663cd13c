package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// MarkDelivered atomically claims a message id (SETNX). It reports true the
// first time an id is seen and false for every redelivery within ttl.
func (r *RedisRepo) MarkDelivered(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	const op = "storage.redis.MarkDelivered"

	key := fmt.Sprintf("mail:delivered:%s", messageID)

	first, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return first, nil
}

// Forget releases a claim so a failed send can be retried.
func (r *RedisRepo) Forget(ctx context.Context, messageID string) error {
	const op = "storage.redis.Forget"

	if err := r.client.Del(ctx, fmt.Sprintf("mail:delivered:%s", messageID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
