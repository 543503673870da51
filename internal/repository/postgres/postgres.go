package postgres

import (
	"context"
	"fmt"
	"time"

	"taskShare/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig - лимиты пула соединений
type PoolConfig struct {
	URL            string
	MaxConnections int
	MinConnections int
	IdleTimeout    time.Duration
}

// NewPool создаёт один пул на процесс, хранилища получают его при сборке
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка разбора строки подключения", err)
		return nil, fmt.Errorf("разбор строки подключения: %w", err)
	}

	config.MaxConns = int32(cfg.MaxConnections)
	if config.MaxConns <= 0 {
		config.MaxConns = 10
	}
	config.MinConns = int32(cfg.MinConnections)
	if config.MinConns <= 0 {
		config.MinConns = 2
	}
	config.MaxConnIdleTime = cfg.IdleTimeout
	if config.MaxConnIdleTime <= 0 {
		config.MaxConnIdleTime = time.Minute * 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return pool, nil
}
