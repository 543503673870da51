package service

import (
	"context"
	"errors"
	"fmt"

	"taskShare/internal/cache"
	"taskShare/internal/logger"
	"taskShare/internal/models/share"
	rep "taskShare/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	resourceUser  = "Пользователь"
	resourceShare = "Выдача доступа"
)

// ShareService управляет выдачами доступа к задачам.
// Любая операция доступна только владельцу задачи.
type ShareService struct {
	tasks  TaskRepository
	users  UserRepository
	shares ShareRepository
	authz  *Authorizer
	cache  cache.Client
}

func NewShareService(tasks TaskRepository, users UserRepository, shares ShareRepository, authz *Authorizer, c cache.Client) ShareService {
	return ShareService{
		tasks:  tasks,
		users:  users,
		shares: shares,
		authz:  authz,
		cache:  c,
	}
}

// GrantShare выдаёт получателю доступ к задаче либо меняет право уже
// существующей выдачи. Второй результат true означает, что выдача
// была создана, а не обновлена.
func (s *ShareService) GrantShare(ctx context.Context, principal, taskID uuid.UUID, granteeEmail string, permission share.Permission) (*share.Share, bool, error) {
	if principal == uuid.Nil {
		return nil, false, NewUnauthenticated()
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", taskID.String()))
			return nil, false, NewNotFound(resourceTask, taskID.String())
		}
		return nil, false, fmt.Errorf("получение задачи: %w", err)
	}

	allowed, err := s.authz.CanManageShares(ctx, principal, t)
	if err != nil {
		return nil, false, err
	}
	if !allowed {
		logger.Info("Service: Управление доступом запрещено",
			zap.String("principal", principal.String()),
			zap.String("target_id", taskID.String()),
		)
		return nil, false, NewForbidden("управление доступом к задаче")
	}

	if permission == "" {
		permission = share.PermissionView
	}
	if !permission.Valid() {
		return nil, false, NewInvalidOperation(
			fmt.Sprintf("неизвестное право %q", permission),
			ToDetail("permission", string(permission)),
		)
	}

	grantee, err := s.users.GetByEmail(ctx, granteeEmail)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Получатель доступа не найден", zap.String("email", granteeEmail))
			return nil, false, NewNotFound(resourceUser, granteeEmail)
		}
		return nil, false, fmt.Errorf("поиск получателя доступа: %w", err)
	}
	if !grantee.Active {
		logger.Info("Service: Получатель доступа деактивирован", zap.String("email", granteeEmail))
		return nil, false, NewNotFound(resourceUser, granteeEmail)
	}

	if grantee.ID == t.OwnerID {
		return nil, false, NewInvalidOperation("владелец не может выдать доступ самому себе")
	}

	sh := &share.Share{
		ID:         uuid.New(),
		TaskID:     taskID,
		GranteeID:  grantee.ID,
		Permission: permission,
	}

	created, err := s.shares.Upsert(ctx, sh)
	if err != nil {
		return nil, false, fmt.Errorf("выдача доступа: %w", err)
	}

	invalidateVisible(ctx, s.cache, grantee.ID)
	return sh, created, nil
}

// RevokeShare снимает выдачу. Отсутствующая выдача это ошибка
// NOT_FOUND, а не тихий успех: вызывающий узнаёт, что отзывать
// было нечего.
func (s *ShareService) RevokeShare(ctx context.Context, principal, taskID, granteeID uuid.UUID) error {
	if principal == uuid.Nil {
		return NewUnauthenticated()
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", taskID.String()))
			return NewNotFound(resourceTask, taskID.String())
		}
		return fmt.Errorf("получение задачи: %w", err)
	}

	allowed, err := s.authz.CanManageShares(ctx, principal, t)
	if err != nil {
		return err
	}
	if !allowed {
		logger.Info("Service: Управление доступом запрещено",
			zap.String("principal", principal.String()),
			zap.String("target_id", taskID.String()),
		)
		return NewForbidden("управление доступом к задаче")
	}

	if err := s.shares.Delete(ctx, taskID, granteeID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Выдача доступа не найдена",
				zap.String("target_id", taskID.String()),
				zap.String("grantee", granteeID.String()),
			)
			return NewNotFound(resourceShare, granteeID.String())
		}
		return fmt.Errorf("отзыв доступа: %w", err)
	}

	invalidateVisible(ctx, s.cache, granteeID)
	return nil
}

func (s *ShareService) ListShares(ctx context.Context, principal, taskID uuid.UUID) ([]*share.Share, error) {
	if principal == uuid.Nil {
		return nil, NewUnauthenticated()
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", taskID.String()))
			return nil, NewNotFound(resourceTask, taskID.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	allowed, err := s.authz.CanManageShares(ctx, principal, t)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewForbidden("просмотр выдач задачи")
	}

	shares, err := s.shares.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение выдач задачи: %w", err)
	}

	return shares, nil
}
