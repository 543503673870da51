package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"taskShare/internal/cache"
	"taskShare/internal/logger"
	"taskShare/internal/models/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Кэш видимых списков задач. Ошибки кэша никогда не роняют операцию:
// промах или сбой означает поход в хранилище.

const visibleKeyPrefix = "tasks:visible:"

func visibleKey(userID uuid.UUID) string {
	return visibleKeyPrefix + userID.String()
}

func loadVisibleFromCache(ctx context.Context, c cache.Client, userID uuid.UUID) ([]*task.Task, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.Get(ctx, visibleKey(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("Service: Кэш видимости недоступен", zap.Error(err))
		}
		return nil, false
	}

	var tasks []*task.Task
	if err := json.Unmarshal([]byte(payload), &tasks); err != nil {
		// испорченную запись убираем, чтобы не спотыкаться о неё снова
		_ = c.Delete(ctx, visibleKey(userID))
		logger.Warn("Service: Испорченная запись в кэше видимости", zap.Error(err))
		return nil, false
	}

	return tasks, true
}

func storeVisible(ctx context.Context, c cache.Client, userID uuid.UUID, tasks []*task.Task, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}

	payload, err := json.Marshal(tasks)
	if err != nil {
		logger.Warn("Service: Не удалось сериализовать список задач", zap.Error(err))
		return
	}

	if err := c.Set(ctx, visibleKey(userID), string(payload), ttl); err != nil {
		logger.Warn("Service: Не удалось записать кэш видимости", zap.Error(err))
	}
}

// invalidateVisible сбрасывает кэшированные списки перечисленных
// пользователей после любой мутации, меняющей их видимый набор
func invalidateVisible(ctx context.Context, c cache.Client, userIDs ...uuid.UUID) {
	if c == nil || len(userIDs) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, visibleKey(id))
	}

	if len(keys) == 0 {
		return
	}

	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("Service: Не удалось сбросить кэш видимости", zap.Error(err))
	}
}
