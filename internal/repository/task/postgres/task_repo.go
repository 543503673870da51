package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskShare/internal/logger"
	"taskShare/internal/models/task"
	repo "taskShare/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

// New принимает готовый пул, созданный в точке сборки приложения
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, title, description, status, priority, deadline, owner_id, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.Deadline,
		taskToCreate.OwnerID,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				title,
				description,
				status,
				priority,
				deadline,
				owner_id,
				created_at,
				updated_at,
				version
				FROM tasks
				WHERE uuid = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Deadline,
		&t.OwnerID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				deadline = $5,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $6 AND version = $7
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.Deadline,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении задачи",
				zap.String("task_id", taskToUpdate.UUID.String()),
				zap.Int("expected_version", taskToUpdate.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// Delete удаляет задачу, связанные share уходят каскадом по внешнему ключу
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE uuid = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// GetVisible возвращает задачи, которыми пользователь владеет или которыми
// с ним поделились. DISTINCT гарантирует отсутствие дублей.
func (s *Storage) GetVisible(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT DISTINCT
				t.uuid,
				t.title,
				t.description,
				t.status,
				t.priority,
				t.deadline,
				t.owner_id,
				t.created_at,
				t.updated_at,
				t.version
				FROM tasks t
				LEFT JOIN shares s ON s.task_id = t.uuid
				WHERE t.owner_id = $1 OR s.grantee_id = $1
				ORDER BY t.created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// GetDueBetween - кандидаты напоминаний: дедлайн в (from, to], незавершённые
func (s *Storage) GetDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				title,
				description,
				status,
				priority,
				deadline,
				owner_id,
				created_at,
				updated_at,
				version
				FROM tasks
				WHERE deadline IS NOT NULL
				AND deadline > $1
				AND deadline <= $2
				AND status != $3
				ORDER BY deadline`

	rows, err := s.pool.Query(ctx, query, from, to, task.StatusDone)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

func scanTasks(rows pgx.Rows) ([]*task.Task, error) {
	tasks := []*task.Task{}

	for rows.Next() {
		t := &task.Task{}

		err := rows.Scan(
			&t.UUID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&t.Deadline,
			&t.OwnerID,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Version,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}
