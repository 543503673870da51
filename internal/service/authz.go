package service

import (
	"context"
	"errors"
	"fmt"

	"taskShare/internal/models/task"
	rep "taskShare/internal/repository"

	"github.com/google/uuid"
)

// Authorizer решает, что принципалу можно делать с задачей.
// Владелец может всё. Выдача view даёт только чтение, выдача edit
// добавляет изменение. Управление доступом и удаление остаются
// за владельцем при любых выдачах.
type Authorizer struct {
	shares ShareRepository
}

func NewAuthorizer(shares ShareRepository) *Authorizer {
	return &Authorizer{shares: shares}
}

func (a *Authorizer) CanView(ctx context.Context, principal uuid.UUID, t *task.Task) (bool, error) {
	if principal == uuid.Nil || t == nil {
		return false, nil
	}
	if t.OwnerID == principal {
		return true, nil
	}

	// решение каждый раз перечитывается из хранилища: отзыв доступа
	// должен действовать немедленно
	_, err := a.shares.GetByTaskAndGrantee(ctx, t.UUID, principal)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("проверка права на чтение: %w", err)
	}

	return true, nil
}

func (a *Authorizer) CanEdit(ctx context.Context, principal uuid.UUID, t *task.Task) (bool, error) {
	if principal == uuid.Nil || t == nil {
		return false, nil
	}
	if t.OwnerID == principal {
		return true, nil
	}

	sh, err := a.shares.GetByTaskAndGrantee(ctx, t.UUID, principal)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("проверка права на изменение: %w", err)
	}

	return sh.Permission.AllowsEdit(), nil
}

func (a *Authorizer) CanManageShares(_ context.Context, principal uuid.UUID, t *task.Task) (bool, error) {
	if principal == uuid.Nil || t == nil {
		return false, nil
	}
	return t.OwnerID == principal, nil
}

func (a *Authorizer) CanDelete(_ context.Context, principal uuid.UUID, t *task.Task) (bool, error) {
	if principal == uuid.Nil || t == nil {
		return false, nil
	}
	return t.OwnerID == principal, nil
}
