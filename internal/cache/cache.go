// Package cache даёт сервисам общий доступ к кэшу и маркерам
// отправки: видимые списки задач, дедупликация уведомлений,
// блокировка планировщика.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss возвращается при отсутствии ключа
var ErrCacheMiss = errors.New("ключ не найден в кэше")

// Client описывает операции кэша, не завися от конкретного бэкенда
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX записывает значение, только если ключа ещё нет.
	// Возвращает true, если запись произошла.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config задаёт бэкенд кэша и параметры подключения
type Config struct {
	Backend  string `mapstructure:"backend"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// New собирает клиент кэша по имени бэкенда из конфигурации
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedis(ctx, cfg)
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд кэша: %q", cfg.Backend)
	}
}
