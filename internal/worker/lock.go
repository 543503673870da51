package worker

import (
	"context"
	"time"

	"taskShare/internal/cache"
)

const lockKey = "scheduler:deadline_scan:lock"

// RunLock не даёт двум экземплярам сервиса вести проход одновременно.
// TTL обязан перекрывать весь цикл попыток вместе с паузами, иначе
// Release может снять чужую блокировку.
type RunLock struct {
	cache cache.Client
	ttl   time.Duration
}

func NewRunLock(c cache.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RunLock{cache: c, ttl: ttl}
}

// TryAcquire возвращает true, если блокировка взята этим экземпляром
func (l *RunLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.cache.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), l.ttl)
}

func (l *RunLock) Release(ctx context.Context) error {
	return l.cache.Delete(ctx, lockKey)
}
