package inmemory

import (
	"context"
	"sync"
	"time"

	"taskShare/internal/models/user"
	repo "taskShare/internal/repository"

	"github.com/google/uuid"
)

// UserStorage хранит пользователей в памяти, для тестов и локального запуска
type UserStorage struct {
	storage map[uuid.UUID]user.User
	byEmail map[string]uuid.UUID
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[uuid.UUID]user.User),
		byEmail: make(map[string]uuid.UUID),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(_ context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	userToCreate.Email = user.NormalizeEmail(userToCreate.Email)
	if userToCreate.CreatedAt.IsZero() {
		userToCreate.CreatedAt = time.Now().UTC()
	}

	s.storage[userToCreate.ID] = *userToCreate
	s.byEmail[userToCreate.Email] = userToCreate.ID
	return nil
}

func (s *UserStorage) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	u := stored
	return &u, nil
}

func (s *UserStorage) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := []*user.User{}
	for _, id := range ids {
		stored, ok := s.storage[id]
		if !ok {
			continue
		}
		u := stored
		users = append(users, &u)
	}

	return users, nil
}

func (s *UserStorage) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return nil, repo.ErrNotFound
	}

	stored := s.storage[id]
	u := stored
	return &u, nil
}
