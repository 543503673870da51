package handlers

import (
	"context"

	"taskShare/internal/notifier"
	"taskShare/internal/scheduler"

	"github.com/google/uuid"
)

// ScanRunner выполняет один проход рассылки напоминаний
type ScanRunner interface {
	ScanOnce(ctx context.Context) (*scheduler.RunSummary, error)
}

// NotificationDispatcher отправляет точечное уведомление о задаче
type NotificationDispatcher interface {
	Notify(ctx context.Context, taskID uuid.UUID, reason notifier.Reason, recipient string) notifier.Result
}

// StoreHealth и CacheHealth отвечают на проверку живости зависимостей

type StoreHealth interface {
	HealthCheck(ctx context.Context) error
}

type CacheHealth interface {
	Ping(ctx context.Context) error
}
