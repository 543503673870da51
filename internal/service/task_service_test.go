package service_test

import (
	"context"
	"errors"
	"strings"
	"taskShare/internal/cache"
	"taskShare/internal/models/share"
	"taskShare/internal/models/task"
	"taskShare/internal/repository"
	"taskShare/internal/service"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(tasks service.TaskRepository, shares service.ShareRepository, c cache.Client) service.TaskService {
	return service.NewTaskService(tasks, shares, service.NewAuthorizer(shares), c, time.Minute)
}

// TestTaskService_CreateTask тестирует создание задачи
func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	principal := uuid.New()

	t.Run("success - defaults applied", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("Create", mock.Anything, mock.MatchedBy(func(created *task.Task) bool {
			return created.UUID != uuid.Nil &&
				created.Title == "Report" &&
				created.Status == task.StatusNew &&
				created.Priority == task.PriorityMedium &&
				created.OwnerID == principal
		})).Return(nil)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		result, err := svc.CreateTask(ctx, principal, "  Report  ", "Quarterly numbers", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "Report", result.Title)
		assert.Equal(t, task.StatusNew, result.Status)
		assert.Equal(t, task.PriorityMedium, result.Priority)
		assert.Equal(t, principal, result.OwnerID)
		mockTasks.AssertExpectations(t)
	})

	t.Run("error - unauthenticated", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.CreateTask(ctx, uuid.Nil, "Report", "", task.PriorityLow, nil)

		assert.Equal(t, service.CodeUnauthenticated, businessCode(err))
		mockTasks.AssertNotCalled(t, "Create")
	})

	t.Run("error - empty title", func(t *testing.T) {
		svc := newTaskService(new(MockTaskRepository), new(MockShareRepository), nil)
		_, err := svc.CreateTask(ctx, principal, "   ", "", task.PriorityLow, nil)

		assert.Equal(t, service.CodeValidationError, businessCode(err))
	})

	t.Run("error - title too long", func(t *testing.T) {
		svc := newTaskService(new(MockTaskRepository), new(MockShareRepository), nil)
		_, err := svc.CreateTask(ctx, principal, strings.Repeat("ы", 256), "", task.PriorityLow, nil)

		assert.Equal(t, service.CodeValidationError, businessCode(err))
	})

	t.Run("error - unknown priority", func(t *testing.T) {
		svc := newTaskService(new(MockTaskRepository), new(MockShareRepository), nil)
		_, err := svc.CreateTask(ctx, principal, "Report", "", task.Priority("urgent"), nil)

		assert.Equal(t, service.CodeValidationError, businessCode(err))
	})

	t.Run("error - storage failure", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("Create", mock.Anything, mock.Anything).Return(errors.New("соединение потеряно"))

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.CreateTask(ctx, principal, "Report", "", task.PriorityLow, nil)

		require.Error(t, err)
		assert.Empty(t, businessCode(err))
	})
}

// TestTaskService_CreateTask_InvalidatesVisibleCache тестирует сброс кэша владельца
func TestTaskService_CreateTask_InvalidatesVisibleCache(t *testing.T) {
	ctx := context.Background()
	principal := uuid.New()

	memory := cache.NewMemory()
	require.NoError(t, memory.Set(ctx, "tasks:visible:"+principal.String(), "[]", 0))

	mockTasks := new(MockTaskRepository)
	mockTasks.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newTaskService(mockTasks, new(MockShareRepository), memory)
	_, err := svc.CreateTask(ctx, principal, "Report", "", "", nil)
	require.NoError(t, err)

	_, err = memory.Get(ctx, "tasks:visible:"+principal.String())
	assert.Equal(t, cache.ErrCacheMiss, err)
}

// TestTaskService_GetTask тестирует чтение задачи с проверкой прав
func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	taskID := uuid.New()
	stored := &task.Task{UUID: taskID, Title: "Report", OwnerID: owner, Status: task.StatusNew, Priority: task.PriorityMedium}

	t.Run("success - owner reads own task", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		result, err := svc.GetTask(ctx, owner, taskID)

		require.NoError(t, err)
		assert.Equal(t, taskID, result.UUID)
	})

	t.Run("success - grantee with view reads", func(t *testing.T) {
		grantee := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)
		mockShares := new(MockShareRepository)
		mockShares.On("GetByTaskAndGrantee", mock.Anything, taskID, grantee).
			Return(&share.Share{Permission: share.PermissionView}, nil)

		svc := newTaskService(mockTasks, mockShares, nil)
		result, err := svc.GetTask(ctx, grantee, taskID)

		require.NoError(t, err)
		assert.Equal(t, taskID, result.UUID)
		mockShares.AssertExpectations(t)
	})

	t.Run("error - stranger forbidden", func(t *testing.T) {
		stranger := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)
		mockShares := new(MockShareRepository)
		mockShares.On("GetByTaskAndGrantee", mock.Anything, taskID, stranger).
			Return(nil, repository.ErrNotFound)

		svc := newTaskService(mockTasks, mockShares, nil)
		_, err := svc.GetTask(ctx, stranger, taskID)

		assert.Equal(t, service.CodeForbidden, businessCode(err))
	})

	t.Run("error - task not found", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.GetTask(ctx, owner, taskID)

		assert.Equal(t, service.CodeNotFound, businessCode(err))
	})

	t.Run("error - unauthenticated", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.GetTask(ctx, uuid.Nil, taskID)

		assert.Equal(t, service.CodeUnauthenticated, businessCode(err))
		mockTasks.AssertNotCalled(t, "GetByID")
	})
}

// TestTaskService_ListVisibleTasks тестирует выборку видимых задач с кэшированием
func TestTaskService_ListVisibleTasks(t *testing.T) {
	ctx := context.Background()
	principal := uuid.New()

	t.Run("success - second call served from cache", func(t *testing.T) {
		visible := []*task.Task{
			{UUID: uuid.New(), Title: "First", OwnerID: principal},
			{UUID: uuid.New(), Title: "Second", OwnerID: principal},
		}

		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetVisible", mock.Anything, principal).Return(visible, nil).Once()

		svc := newTaskService(mockTasks, new(MockShareRepository), cache.NewMemory())

		result, err := svc.ListVisibleTasks(ctx, principal)
		require.NoError(t, err)
		require.Len(t, result, 2)

		// Повторный вызов не ходит в хранилище
		result, err = svc.ListVisibleTasks(ctx, principal)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "First", result[0].Title)

		mockTasks.AssertExpectations(t)
	})

	t.Run("success - corrupt cache entry dropped", func(t *testing.T) {
		memory := cache.NewMemory()
		key := "tasks:visible:" + principal.String()
		require.NoError(t, memory.Set(ctx, key, "{broken json", 0))

		visible := []*task.Task{{UUID: uuid.New(), Title: "Fresh", OwnerID: principal}}
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetVisible", mock.Anything, principal).Return(visible, nil)

		// Нулевой ttl отключает запись, виден только результат очистки
		svc := service.NewTaskService(mockTasks, new(MockShareRepository), service.NewAuthorizer(new(MockShareRepository)), memory, 0)

		result, err := svc.ListVisibleTasks(ctx, principal)
		require.NoError(t, err)
		require.Len(t, result, 1)

		_, err = memory.Get(ctx, key)
		assert.Equal(t, cache.ErrCacheMiss, err)
	})

	t.Run("error - unauthenticated", func(t *testing.T) {
		svc := newTaskService(new(MockTaskRepository), new(MockShareRepository), nil)
		_, err := svc.ListVisibleTasks(ctx, uuid.Nil)

		assert.Equal(t, service.CodeUnauthenticated, businessCode(err))
	})

	t.Run("error - storage failure", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetVisible", mock.Anything, principal).Return(nil, errors.New("соединение потеряно"))

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.ListVisibleTasks(ctx, principal)

		require.Error(t, err)
		assert.Empty(t, businessCode(err))
	})
}

// TestTaskService_UpdateTask тестирует обновление задачи
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	taskID := uuid.New()

	storedTask := func() *task.Task {
		return &task.Task{
			UUID:     taskID,
			Title:    "Report",
			Status:   task.StatusNew,
			Priority: task.PriorityMedium,
			OwnerID:  owner,
			Version:  1,
		}
	}

	t.Run("success - owner updates", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)
		mockTasks.On("Update", mock.Anything, mock.MatchedBy(func(updated *task.Task) bool {
			return updated.Title == "Final Report" && updated.Status == task.StatusInProgress
		})).Return(nil)
		mockShares := new(MockShareRepository)
		mockShares.On("ListByTask", mock.Anything, taskID).Return([]*share.Share{}, nil)

		svc := newTaskService(mockTasks, mockShares, nil)
		result, err := svc.UpdateTask(ctx, owner, taskID,
			task.WithTitle("Final Report"),
			task.WithStatus(task.StatusInProgress),
		)

		require.NoError(t, err)
		assert.Equal(t, "Final Report", result.Title)
		assert.Equal(t, task.StatusInProgress, result.Status)
		mockTasks.AssertExpectations(t)
	})

	t.Run("success - grantee with edit updates", func(t *testing.T) {
		editor := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)
		mockTasks.On("Update", mock.Anything, mock.Anything).Return(nil)
		mockShares := new(MockShareRepository)
		mockShares.On("GetByTaskAndGrantee", mock.Anything, taskID, editor).
			Return(&share.Share{Permission: share.PermissionEdit}, nil)
		mockShares.On("ListByTask", mock.Anything, taskID).
			Return([]*share.Share{{GranteeID: editor}}, nil)

		svc := newTaskService(mockTasks, mockShares, nil)
		result, err := svc.UpdateTask(ctx, editor, taskID, task.WithDescription("Updated"))

		require.NoError(t, err)
		assert.Equal(t, "Updated", result.Description)
	})

	t.Run("error - grantee with view forbidden", func(t *testing.T) {
		viewer := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)
		mockShares := new(MockShareRepository)
		mockShares.On("GetByTaskAndGrantee", mock.Anything, taskID, viewer).
			Return(&share.Share{Permission: share.PermissionView}, nil)

		svc := newTaskService(mockTasks, mockShares, nil)
		_, err := svc.UpdateTask(ctx, viewer, taskID, task.WithTitle("Hijacked"))

		assert.Equal(t, service.CodeForbidden, businessCode(err))
		mockTasks.AssertNotCalled(t, "Update")
	})

	t.Run("error - version conflict", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)
		mockTasks.On("Update", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.UpdateTask(ctx, owner, taskID, task.WithTitle("Contended"))

		assert.Equal(t, service.CodeVersionConflict, businessCode(err))
	})

	t.Run("error - task vanished during update", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)
		mockTasks.On("Update", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.UpdateTask(ctx, owner, taskID, task.WithTitle("Gone"))

		assert.Equal(t, service.CodeNotFound, businessCode(err))
	})

	t.Run("error - unknown status", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.UpdateTask(ctx, owner, taskID, task.WithStatus("archived"))

		assert.Equal(t, service.CodeValidationError, businessCode(err))
		mockTasks.AssertNotCalled(t, "Update")
	})

	t.Run("error - blank title", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(storedTask(), nil)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.UpdateTask(ctx, owner, taskID, task.WithTitle("   "))

		assert.Equal(t, service.CodeValidationError, businessCode(err))
	})

	t.Run("error - task not found", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		_, err := svc.UpdateTask(ctx, owner, taskID)

		assert.Equal(t, service.CodeNotFound, businessCode(err))
	})
}

// TestTaskService_DeleteTask тестирует удаление задачи
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	taskID := uuid.New()
	stored := &task.Task{UUID: taskID, Title: "Report", OwnerID: owner}

	t.Run("success - owner deletes", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)
		mockTasks.On("Delete", mock.Anything, taskID).Return(nil)
		mockShares := new(MockShareRepository)
		mockShares.On("ListByTask", mock.Anything, taskID).Return([]*share.Share{}, nil)
		mockShares.On("DeleteByTask", mock.Anything, taskID).Return(nil)

		svc := newTaskService(mockTasks, mockShares, nil)
		err := svc.DeleteTask(ctx, owner, taskID)

		require.NoError(t, err)
		mockTasks.AssertExpectations(t)
		mockShares.AssertExpectations(t)
	})

	t.Run("error - grantee with edit cannot delete", func(t *testing.T) {
		editor := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		err := svc.DeleteTask(ctx, editor, taskID)

		assert.Equal(t, service.CodeForbidden, businessCode(err))
		mockTasks.AssertNotCalled(t, "Delete")
	})

	t.Run("error - task not found", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(nil, repository.ErrNotFound)

		svc := newTaskService(mockTasks, new(MockShareRepository), nil)
		err := svc.DeleteTask(ctx, owner, taskID)

		assert.Equal(t, service.CodeNotFound, businessCode(err))
	})

	t.Run("success - share cleanup failure is tolerated", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)
		mockTasks.On("Delete", mock.Anything, taskID).Return(nil)
		mockShares := new(MockShareRepository)
		mockShares.On("ListByTask", mock.Anything, taskID).Return([]*share.Share{}, nil)
		mockShares.On("DeleteByTask", mock.Anything, taskID).Return(errors.New("соединение потеряно"))

		svc := newTaskService(mockTasks, mockShares, nil)
		err := svc.DeleteTask(ctx, owner, taskID)

		assert.NoError(t, err)
	})

	t.Run("success - visible cache dropped for owner and grantees", func(t *testing.T) {
		grantee := uuid.New()
		memory := cache.NewMemory()
		require.NoError(t, memory.Set(ctx, "tasks:visible:"+owner.String(), "[]", 0))
		require.NoError(t, memory.Set(ctx, "tasks:visible:"+grantee.String(), "[]", 0))

		mockTasks := new(MockTaskRepository)
		mockTasks.On("GetByID", mock.Anything, taskID).Return(stored, nil)
		mockTasks.On("Delete", mock.Anything, taskID).Return(nil)
		mockShares := new(MockShareRepository)
		mockShares.On("ListByTask", mock.Anything, taskID).
			Return([]*share.Share{{GranteeID: grantee}}, nil)
		mockShares.On("DeleteByTask", mock.Anything, taskID).Return(nil)

		svc := newTaskService(mockTasks, mockShares, memory)
		require.NoError(t, svc.DeleteTask(ctx, owner, taskID))

		_, err := memory.Get(ctx, "tasks:visible:"+owner.String())
		assert.Equal(t, cache.ErrCacheMiss, err)
		_, err = memory.Get(ctx, "tasks:visible:"+grantee.String())
		assert.Equal(t, cache.ErrCacheMiss, err)
	})
}
