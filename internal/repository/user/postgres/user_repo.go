package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskShare/internal/logger"
	"taskShare/internal/models/user"
	repo "taskShare/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users (id, email, active, created_at)
				VALUES ($1, $2, $3, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		userToCreate.ID,
		user.NormalizeEmail(userToCreate.Email),
		userToCreate.Active,
	).Scan(&userToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}

	userToCreate.Email = user.NormalizeEmail(userToCreate.Email)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	start := time.Now()

	query := `SELECT id, email, active, created_at FROM users WHERE id = $1`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	return u, nil
}

// GetByIDs возвращает найденных пользователей, отсутствующие id молча пропускаются
func (s *Storage) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	start := time.Now()

	query := `SELECT id, email, active, created_at FROM users WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Active, &u.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return users, nil
}

// GetByEmail ищет без учёта регистра
func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	start := time.Now()

	query := `SELECT id, email, active, created_at FROM users WHERE LOWER(email) = LOWER($1)`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователя по email: %w", err)
	}

	return u, nil
}
