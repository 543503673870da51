package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskShare/internal/models/share"
	repo "taskShare/internal/repository"

	"github.com/google/uuid"
)

// ShareStorage хранит выдачи доступа в памяти, сгруппированными по задаче
type ShareStorage struct {
	storage map[uuid.UUID]map[uuid.UUID]share.Share
	mtx     *sync.RWMutex
}

func NewShareStorage() *ShareStorage {
	return &ShareStorage{
		storage: make(map[uuid.UUID]map[uuid.UUID]share.Share),
		mtx:     &sync.RWMutex{},
	}
}

func (s *ShareStorage) Upsert(_ context.Context, shareToGrant *share.Share) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	byGrantee, ok := s.storage[shareToGrant.TaskID]
	if !ok {
		byGrantee = make(map[uuid.UUID]share.Share)
		s.storage[shareToGrant.TaskID] = byGrantee
	}

	if existing, ok := byGrantee[shareToGrant.GranteeID]; ok {
		existing.Permission = shareToGrant.Permission
		byGrantee[shareToGrant.GranteeID] = existing
		*shareToGrant = existing
		return false, nil
	}

	if shareToGrant.GrantedAt.IsZero() {
		shareToGrant.GrantedAt = time.Now().UTC()
	}

	byGrantee[shareToGrant.GranteeID] = *shareToGrant
	return true, nil
}

func (s *ShareStorage) GetByTaskAndGrantee(_ context.Context, taskID, granteeID uuid.UUID) (*share.Share, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored, ok := s.storage[taskID][granteeID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	sh := stored
	return &sh, nil
}

func (s *ShareStorage) ListByTask(_ context.Context, taskID uuid.UUID) ([]*share.Share, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	shares := []*share.Share{}
	for _, stored := range s.storage[taskID] {
		sh := stored
		shares = append(shares, &sh)
	}

	// свежие выдачи первыми, как в postgres-хранилище
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].GrantedAt.Equal(shares[j].GrantedAt) {
			return shares[i].GranteeID.String() < shares[j].GranteeID.String()
		}
		return shares[i].GrantedAt.After(shares[j].GrantedAt)
	})

	return shares, nil
}

func (s *ShareStorage) Delete(_ context.Context, taskID, granteeID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	byGrantee, ok := s.storage[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	if _, ok := byGrantee[granteeID]; !ok {
		return repo.ErrNotFound
	}

	delete(byGrantee, granteeID)
	if len(byGrantee) == 0 {
		delete(s.storage, taskID)
	}

	return nil
}

func (s *ShareStorage) DeleteByTask(_ context.Context, taskID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.storage, taskID)
	return nil
}

// HasShare отвечает хранилищу задач на вопрос о видимости
func (s *ShareStorage) HasShare(taskID, userID uuid.UUID) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, ok := s.storage[taskID][userID]
	return ok
}
