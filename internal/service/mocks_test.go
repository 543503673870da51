package service_test

import (
	"context"
	"taskShare/internal/models/share"
	"taskShare/internal/models/task"
	"taskShare/internal/models/user"
	"taskShare/internal/service"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - мок хранилища задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) GetVisible(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

// MockUserRepository - мок хранилища пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

var _ service.UserRepository = (*MockUserRepository)(nil)

// MockShareRepository - мок хранилища выдач доступа
type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) Upsert(ctx context.Context, sh *share.Share) (bool, error) {
	args := m.Called(ctx, sh)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareRepository) GetByTaskAndGrantee(ctx context.Context, taskID, granteeID uuid.UUID) (*share.Share, error) {
	args := m.Called(ctx, taskID, granteeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*share.Share), args.Error(1)
}

func (m *MockShareRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*share.Share, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*share.Share), args.Error(1)
}

func (m *MockShareRepository) Delete(ctx context.Context, taskID, granteeID uuid.UUID) error {
	args := m.Called(ctx, taskID, granteeID)
	return args.Error(0)
}

func (m *MockShareRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

var _ service.ShareRepository = (*MockShareRepository)(nil)

// businessCode достаёт бизнес-код из ошибки, пустая строка если это не BusinessError
func businessCode(err error) string {
	busErr, ok := err.(*service.BusinessError)
	if !ok {
		return ""
	}
	return busErr.Code
}
