package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskShare/internal/models/task"
	repo "taskShare/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
	shares  ShareIndex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	stored := *taskToCreate
	s.storage[taskToCreate.UUID] = &stored
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	copied := *stored
	return &copied, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	// та же дисциплина версий, что и в postgres-хранилище
	if stored.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++

	updated := *taskToUpdate
	s.storage[taskToUpdate.UUID] = &updated
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// GetVisible - владение или доступ через share, без дублей, новые первыми
func (s *TaskStorage) GetVisible(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	seen := make(map[uuid.UUID]bool)
	res := []*task.Task{}

	for _, id := range s.ids {
		t := s.storage[id]
		if seen[t.UUID] {
			continue
		}
		if t.OwnerID == userID || s.sharedWith(t.UUID, userID) {
			seen[t.UUID] = true
			copied := *t
			res = append(res, &copied)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})

	return res, nil
}

func (s *TaskStorage) GetDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	horizon := to.Sub(from)

	for _, id := range s.ids {
		t := s.storage[id]
		if !t.DueSoon(from, horizon) {
			continue
		}
		copied := *t
		res = append(res, &copied)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Deadline.Before(*res[j].Deadline)
	})

	return res, nil
}

// sharedWith опрашивает подключённое share-хранилище, вызывается под RLock
func (s *TaskStorage) sharedWith(taskID, userID uuid.UUID) bool {
	if s.shares == nil {
		return false
	}
	return s.shares.HasShare(taskID, userID)
}

// ShareIndex - доступ к share-записям для запроса видимости
type ShareIndex interface {
	HasShare(taskID, userID uuid.UUID) bool
}

// AttachShares связывает хранилище задач с хранилищем share
func (s *TaskStorage) AttachShares(shares ShareIndex) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.shares = shares
}
