// Package scheduler обходит задачи с приближающимся дедлайном и
// запускает рассылку напоминаний
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"taskShare/internal/cache"
	"taskShare/internal/logger"
	"taskShare/internal/models/task"
	"taskShare/internal/models/user"
	rep "taskShare/internal/repository"
	"taskShare/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const markerKeyPrefix = "notify:deadline:"

// ReminderSender доставляет напоминание владельцу и получателям
// доступа, возвращая число ушедших писем
type ReminderSender interface {
	DeadlineReminder(ctx context.Context, t *task.Task, owner *user.User, grantees []*user.User, hoursRemaining int) int
}

// Config задаёт окно сканирования и протокол повторов
type Config struct {
	Lookahead     time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	MarkerEnabled bool
	MarkerTTL     time.Duration
}

type DeadlineScanner struct {
	tasks  service.TaskRepository
	users  service.UserRepository
	shares service.ShareRepository
	sender ReminderSender
	marker cache.Client

	lookahead     time.Duration
	maxAttempts   int
	retryDelay    time.Duration
	markerEnabled bool
	markerTTL     time.Duration

	now func() time.Time
}

func New(tasks service.TaskRepository, users service.UserRepository, shares service.ShareRepository, sender ReminderSender, marker cache.Client, cfg Config) *DeadlineScanner {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Minute
	}
	if cfg.MarkerTTL <= 0 {
		cfg.MarkerTTL = 24 * time.Hour
	}

	return &DeadlineScanner{
		tasks:         tasks,
		users:         users,
		shares:        shares,
		sender:        sender,
		marker:        marker,
		lookahead:     cfg.Lookahead,
		maxAttempts:   cfg.MaxAttempts,
		retryDelay:    cfg.RetryDelay,
		markerEnabled: cfg.MarkerEnabled,
		markerTTL:     cfg.MarkerTTL,
		now:           time.Now,
	}
}

// ScanOnce делает один проход: выбирает задачи с дедлайном в окне,
// отбрасывает созданные в день дедлайна и рассылает напоминания.
// Сбой хранилища прерывает проход, итог решает протокол повторов.
func (s *DeadlineScanner) ScanOnce(ctx context.Context) (*RunSummary, error) {
	startedAt := s.now().UTC()

	due, err := s.tasks.GetDueBetween(ctx, startedAt, startedAt.Add(s.lookahead))
	if err != nil {
		return nil, fmt.Errorf("выборка задач в окне: %w", err)
	}

	// задачи, созданные в календарный день дедлайна, напоминания
	// не получают: автор и так о них помнит
	candidates := make([]*task.Task, 0, len(due))
	for _, t := range due {
		if sameUTCDay(t.CreatedAt, startedAt) && t.Deadline != nil && sameUTCDay(*t.Deadline, startedAt) {
			continue
		}
		candidates = append(candidates, t)
	}

	summary := &RunSummary{
		Status:         statusSuccess,
		TasksProcessed: len(candidates),
		Timestamp:      startedAt,
	}

	for _, t := range candidates {
		if s.alreadyMarked(ctx, t) {
			logger.Debug("Scheduler: Напоминание уже отправлялось", zap.String("task_id", t.UUID.String()))
			continue
		}

		sent, err := s.remind(ctx, t, startedAt)
		if err != nil {
			return nil, err
		}
		summary.EmailsSent += sent
	}

	logger.Info("Scheduler: Проход завершён",
		zap.Int("tasks_processed", summary.TasksProcessed),
		zap.Int("emails_sent", summary.EmailsSent),
		zap.Duration("ms", time.Since(startedAt)),
	)

	return summary, nil
}

// Run выполняет попытку прохода и переводит её исход в инструкцию
// для триггера: успех, повтор через фиксированную паузу или отказ
// после исчерпания попыток
func (s *DeadlineScanner) Run(ctx context.Context, attempt int) RunResult {
	summary, err := s.ScanOnce(ctx)
	if err == nil {
		return RunResult{
			Outcome:     OutcomeSuccess,
			Summary:     summary,
			Attempt:     attempt,
			MaxAttempts: s.maxAttempts,
		}
	}

	if attempt < s.maxAttempts {
		logger.Warn("Scheduler: Проход сорвался, будет повтор",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Error(err),
		)
		return RunResult{
			Outcome:     OutcomeRetry,
			Attempt:     attempt,
			MaxAttempts: s.maxAttempts,
			Delay:       s.retryDelay,
			Err:         err,
		}
	}

	return RunResult{
		Outcome:     OutcomeExhausted,
		Attempt:     attempt,
		MaxAttempts: s.maxAttempts,
		Err:         err,
	}
}

func (s *DeadlineScanner) remind(ctx context.Context, t *task.Task, now time.Time) (int, error) {
	owner, err := s.users.GetByID(ctx, t.OwnerID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Warn("Scheduler: Владелец задачи не найден, пропуск",
				zap.String("task_id", t.UUID.String()),
				zap.String("owner_id", t.OwnerID.String()),
			)
			return 0, nil
		}
		return 0, fmt.Errorf("получение владельца: %w", err)
	}

	shares, err := s.shares.ListByTask(ctx, t.UUID)
	if err != nil {
		return 0, fmt.Errorf("получение выдач: %w", err)
	}

	granteeIDs := make([]uuid.UUID, 0, len(shares))
	for _, sh := range shares {
		granteeIDs = append(granteeIDs, sh.GranteeID)
	}

	grantees, err := s.users.GetByIDs(ctx, granteeIDs)
	if err != nil {
		return 0, fmt.Errorf("получение получателей доступа: %w", err)
	}

	hoursRemaining := int(t.Deadline.UTC().Sub(now) / time.Hour)

	return s.sender.DeadlineReminder(ctx, t, owner, grantees, hoursRemaining), nil
}

// alreadyMarked ставит маркер отправки и отвечает, был ли он уже.
// Недоступный кэш дедупликацию не останавливает: лучше лишнее
// напоминание, чем ни одного.
func (s *DeadlineScanner) alreadyMarked(ctx context.Context, t *task.Task) bool {
	if !s.markerEnabled || s.marker == nil {
		return false
	}

	stored, err := s.marker.SetNX(ctx, markerKey(t), "1", s.markerTTL)
	if err != nil {
		logger.Warn("Scheduler: Маркер отправки недоступен", zap.Error(err))
		return false
	}

	return !stored
}

// markerKey включает дедлайн: перенесённый срок снимает дедупликацию
// и задача получает новое напоминание
func markerKey(t *task.Task) string {
	return markerKeyPrefix + t.UUID.String() + ":" + strconv.FormatInt(t.Deadline.Unix(), 10)
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
