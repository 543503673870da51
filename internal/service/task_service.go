package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskShare/internal/cache"
	"taskShare/internal/logger"
	"taskShare/internal/models/task"
	rep "taskShare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const resourceTask = "Задача"

type TaskService struct {
	tasks      TaskRepository
	shares     ShareRepository
	authz      *Authorizer
	cache      cache.Client
	visibleTTL time.Duration
}

func NewTaskService(tasks TaskRepository, shares ShareRepository, authz *Authorizer, c cache.Client, visibleTTL time.Duration) TaskService {
	return TaskService{
		tasks:      tasks,
		shares:     shares,
		authz:      authz,
		cache:      c,
		visibleTTL: visibleTTL,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, principal uuid.UUID, title, description string, priority task.Priority, deadline *time.Time) (*task.Task, error) {
	if principal == uuid.Nil {
		return nil, NewUnauthenticated()
	}

	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("недопустимое значение %q", priority))
	}

	newTask := &task.Task{
		UUID:        uuid.New(),
		Title:       title,
		Description: description,
		Status:      task.StatusNew,
		Priority:    priority,
		Deadline:    deadline,
		OwnerID:     principal,
	}

	if err := s.tasks.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	invalidateVisible(ctx, s.cache, principal)
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, principal, id uuid.UUID) (*task.Task, error) {
	if principal == uuid.Nil {
		return nil, NewUnauthenticated()
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authz.CanView(ctx, principal, t)
	if err != nil {
		return nil, err
	}
	if !allowed {
		logger.Info("Service: Доступ к задаче запрещён",
			zap.String("principal", principal.String()),
			zap.String("target_id", id.String()),
		)
		return nil, NewForbidden("чтение задачи")
	}

	return t, nil
}

// ListVisibleTasks отдаёт задачи, которыми принципал владеет или
// которыми с ним поделились, без дубликатов, новые первыми
func (s *TaskService) ListVisibleTasks(ctx context.Context, principal uuid.UUID) ([]*task.Task, error) {
	if principal == uuid.Nil {
		return nil, NewUnauthenticated()
	}

	if tasks, ok := loadVisibleFromCache(ctx, s.cache, principal); ok {
		return tasks, nil
	}

	tasks, err := s.tasks.GetVisible(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("получение видимых задач: %w", err)
	}

	storeVisible(ctx, s.cache, principal, tasks, s.visibleTTL)
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, principal, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	if principal == uuid.Nil {
		return nil, NewUnauthenticated()
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authz.CanEdit(ctx, principal, t)
	if err != nil {
		return nil, err
	}
	if !allowed {
		logger.Info("Service: Изменение задачи запрещено",
			zap.String("principal", principal.String()),
			zap.String("target_id", id.String()),
		)
		return nil, NewForbidden("изменение задачи")
	}

	for _, opt := range options {
		opt(t)
	}

	if t.Title, err = validateTitle(t.Title); err != nil {
		return nil, err
	}
	if !t.Status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("недопустимое значение %q", t.Status))
	}
	if !t.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("недопустимое значение %q", t.Priority))
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, rep.ErrVersionConflict):
			logger.Info("Service: Конфликт версий задачи", zap.String("target_id", id.String()))
			return nil, NewVersionConflict(id.String())
		case errors.Is(err, rep.ErrNotFound):
			return nil, NewNotFound(resourceTask, id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	invalidateVisible(ctx, s.cache, append(s.granteesOf(ctx, id), t.OwnerID)...)
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, principal, id uuid.UUID) error {
	if principal == uuid.Nil {
		return NewUnauthenticated()
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.authz.CanDelete(ctx, principal, t)
	if err != nil {
		return err
	}
	if !allowed {
		logger.Info("Service: Удаление задачи запрещено",
			zap.String("principal", principal.String()),
			zap.String("target_id", id.String()),
		)
		return NewForbidden("удаление задачи")
	}

	// выдачи доступа уходят вместе с задачей, список нужен до удаления
	grantees := s.granteesOf(ctx, id)

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(resourceTask, id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if err := s.shares.DeleteByTask(ctx, id); err != nil {
		logger.Warn("Service: Не удалось снять выдачи удалённой задачи", zap.Error(err))
	}

	invalidateVisible(ctx, s.cache, append(grantees, t.OwnerID)...)
	return nil
}

func (s *TaskService) getTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(resourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// granteesOf отдаёт получателей доступа для сброса кэша, сбой не фатален
func (s *TaskService) granteesOf(ctx context.Context, taskID uuid.UUID) []uuid.UUID {
	shares, err := s.shares.ListByTask(ctx, taskID)
	if err != nil {
		logger.Warn("Service: Не удалось получить выдачи задачи", zap.Error(err))
		return nil
	}

	ids := make([]uuid.UUID, 0, len(shares))
	for _, sh := range shares {
		ids = append(ids, sh.GranteeID)
	}
	return ids
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", NewValidationError("title", "название не может быть пустым")
	}
	if utf8.RuneCountInString(title) > 255 {
		return "", NewValidationError("title", "название длиннее 255 символов")
	}
	return title, nil
}
