package worker

import (
	"context"
	"time"

	"taskShare/internal/logger"
	"taskShare/internal/scheduler"

	"go.uber.org/zap"
)

// Scanner запускает одну попытку прохода и сообщает её исход
type Scanner interface {
	Run(ctx context.Context, attempt int) scheduler.RunResult
}

type DeadlineWorker struct {
	scanner  Scanner
	lock     *RunLock
	interval time.Duration
}

func NewDeadlineWorker(scanner Scanner, lock *RunLock, interval *time.Duration) *DeadlineWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = time.Hour
	} else {
		intervalToSet = *interval
	}

	return &DeadlineWorker{
		scanner:  scanner,
		lock:     lock,
		interval: intervalToSet,
	}
}

func (w *DeadlineWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Плановый запуск рассылки напоминаний", zap.Time("started_at", time.Now()))
			w.RunOnce(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая рассылка останавливается")
			return
		}
	}
}

// RunOnce ведёт один запуск под блокировкой: попытки следуют друг за
// другом с паузой, которую диктует исход предыдущей
func (w *DeadlineWorker) RunOnce(ctx context.Context) {
	acquired, err := w.lock.TryAcquire(ctx)
	if err != nil {
		// без ответа от кэша запуск не откладываем: одиночный
		// экземпляр важнее строгой координации
		logger.Warn("Worker: Блокировка запуска недоступна", zap.Error(err))
	} else if !acquired {
		logger.Info("Worker: Проход уже идёт в другом экземпляре, пропуск")
		return
	}

	if err == nil {
		defer func() {
			if releaseErr := w.lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
				logger.Warn("Worker: Не удалось снять блокировку запуска", zap.Error(releaseErr))
			}
		}()
	}

	attempt := 1
	for {
		result := w.scanner.Run(ctx, attempt)

		switch result.Outcome {
		case scheduler.OutcomeSuccess:
			logger.Info("Worker: Рассылка напоминаний завершена",
				zap.Int("tasks_processed", result.Summary.TasksProcessed),
				zap.Int("emails_sent", result.Summary.EmailsSent),
				zap.Int("attempt", result.Attempt),
			)
			return

		case scheduler.OutcomeRetry:
			select {
			case <-time.After(result.Delay):
				attempt++
			case <-ctx.Done():
				logger.Info("Worker: Остановка во время паузы между попытками")
				return
			}

		case scheduler.OutcomeExhausted:
			logger.Error("Worker: Запуск рассылки не удался, попытки исчерпаны", result.Err,
				zap.Int("attempts", result.Attempt),
			)
			return

		default:
			logger.Error("Worker: Неизвестный исход попытки", nil, zap.String("outcome", string(result.Outcome)))
			return
		}
	}
}
