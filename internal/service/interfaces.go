package service

import (
	"context"
	"time"

	"taskShare/internal/models/share"
	"taskShare/internal/models/task"
	"taskShare/internal/models/user"

	"github.com/google/uuid"
)

// Контракты хранилищ, которым должны соответствовать оба бэкенда

type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetVisible(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	GetDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type ShareRepository interface {
	Upsert(ctx context.Context, sh *share.Share) (bool, error)
	GetByTaskAndGrantee(ctx context.Context, taskID, granteeID uuid.UUID) (*share.Share, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*share.Share, error)
	Delete(ctx context.Context, taskID, granteeID uuid.UUID) error
	DeleteByTask(ctx context.Context, taskID uuid.UUID) error
}
