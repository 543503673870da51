// Package notifier превращает события задач в письма.
// Ошибки доставки не покидают пакет: точечное уведомление кладёт их
// в результат, напоминание о дедлайне считает недоставленных.
package notifier

import (
	"context"
	"errors"

	"taskShare/internal/logger"
	"taskShare/internal/mailer"
	"taskShare/internal/models/task"
	"taskShare/internal/models/user"
	rep "taskShare/internal/repository"
	"taskShare/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StatusSent  = "sent"
	StatusError = "error"
)

// Result описывает исход точечного уведомления
type Result struct {
	Status    string `json:"status"`
	Reason    Reason `json:"reason"`
	TaskID    string `json:"task_id"`
	Recipient string `json:"recipient,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type Dispatcher struct {
	tasks  service.TaskRepository
	users  service.UserRepository
	mailer mailer.Mailer
}

func NewDispatcher(tasks service.TaskRepository, users service.UserRepository, m mailer.Mailer) *Dispatcher {
	return &Dispatcher{
		tasks:  tasks,
		users:  users,
		mailer: m,
	}
}

// Notify отправляет одно письмо о событии задачи. Пустой получатель
// означает владельца задачи.
func (d *Dispatcher) Notify(ctx context.Context, taskID uuid.UUID, reason Reason, recipient string) Result {
	result := Result{
		Status:    StatusError,
		Reason:    reason,
		TaskID:    taskID.String(),
		Recipient: recipient,
	}

	t, err := d.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			result.Detail = "задача не найдена"
		} else {
			result.Detail = "получение задачи: " + err.Error()
		}
		logger.Warn("Notifier: Уведомление не отправлено",
			zap.String("task_id", result.TaskID),
			zap.String("detail", result.Detail),
		)
		return result
	}

	owner, err := d.users.GetByID(ctx, t.OwnerID)
	if err != nil {
		result.Detail = "владелец задачи не найден"
		logger.Warn("Notifier: Уведомление не отправлено",
			zap.String("task_id", result.TaskID),
			zap.String("detail", result.Detail),
		)
		return result
	}

	if recipient == "" {
		recipient = owner.Email
		result.Recipient = recipient
	}

	subject, body := pointMessage(t, reason, owner.Email)

	if err := d.mailer.Send(ctx, recipient, subject, body); err != nil {
		result.Detail = "доставка письма: " + err.Error()
		logger.Warn("Notifier: Письмо не доставлено",
			zap.String("task_id", result.TaskID),
			zap.String("to", recipient),
			zap.Error(err),
		)
		return result
	}

	result.Status = StatusSent
	result.Detail = ""
	return result
}

// DeadlineReminder рассылает напоминание владельцу и всем получателям
// доступа. Возвращает число доставленных писем, недоставленные только
// логируются: одна неудача не должна срывать рассылку остальным.
func (d *Dispatcher) DeadlineReminder(ctx context.Context, t *task.Task, owner *user.User, grantees []*user.User, hoursRemaining int) int {
	subject := deadlineSubject(t)
	body := deadlineBody(t, hoursRemaining)

	sent := 0
	if err := d.mailer.Send(ctx, owner.Email, subject, body); err != nil {
		logger.Warn("Notifier: Письмо владельцу не доставлено",
			zap.String("task_id", t.UUID.String()),
			zap.String("to", owner.Email),
			zap.Error(err),
		)
	} else {
		sent++
	}

	if len(grantees) == 0 {
		return sent
	}

	recipients := make([]string, 0, len(grantees))
	for _, grantee := range grantees {
		recipients = append(recipients, grantee.Email)
	}

	bulk := d.mailer.SendBulk(ctx, recipients, subject, body)
	for _, failed := range bulk.Failed {
		logger.Warn("Notifier: Письмо получателю доступа не доставлено",
			zap.String("task_id", t.UUID.String()),
			zap.String("to", failed),
		)
	}

	return sent + bulk.Sent
}
