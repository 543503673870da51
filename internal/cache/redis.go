package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskShare/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient реализует Client поверх go-redis
type RedisClient struct {
	client *redis.Client
}

// NewRedis подключается к redis и проверяет соединение
func NewRedis(ctx context.Context, cfg Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Cache: Не удалось подключиться к redis", err, zap.String("addr", cfg.Addr))
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}

	logger.Info("Cache: Подключение к redis установлено", zap.String("addr", cfg.Addr))
	return &RedisClient{client: client}, nil
}

// NewRedisWithClient оборачивает готовый клиент, нужен тестам с miniredis
func NewRedisWithClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("чтение ключа %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("запись ключа %s: %w", key, err)
	}
	return nil
}

func (r *RedisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("условная запись ключа %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("удаление ключей: %w", err)
	}
	return nil
}

func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("проверка ключа %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
