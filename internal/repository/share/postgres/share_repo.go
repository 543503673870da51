package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskShare/internal/logger"
	"taskShare/internal/models/share"
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

// Upsert создаёт выдачу доступа либо обновляет право существующей.
// Читает и пишет в одной транзакции, чтобы параллельные выдачи не
// породили дубликат. Возвращает true, если запись была создана.
func (s *Storage) Upsert(ctx context.Context, shareToGrant *share.Share) (bool, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return false, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		existingID uuid.UUID
		created    bool
	)

	querySelect := `SELECT id FROM shares WHERE task_id = $1 AND grantee_id = $2 FOR UPDATE`

	err = tx.QueryRow(ctx, querySelect, shareToGrant.TaskID, shareToGrant.GranteeID).Scan(&existingID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		queryInsert := `INSERT INTO shares (id, task_id, grantee_id, permission, granted_at)
					VALUES ($1, $2, $3, $4, NOW())
					RETURNING granted_at`

		err = tx.QueryRow(ctx, queryInsert,
			shareToGrant.ID,
			shareToGrant.TaskID,
			shareToGrant.GranteeID,
			shareToGrant.Permission,
		).Scan(&shareToGrant.GrantedAt)
		if err != nil {
			logger.Error("Repository: Не удалось создать выдачу доступа", err, zap.Duration("ms", time.Since(start)))
			return false, fmt.Errorf("создание выдачи доступа: %w", err)
		}
		created = true

	case err != nil:
		logger.Error("Repository: Не удалось прочитать выдачу доступа", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("чтение выдачи доступа: %w", err)

	default:
		// granted_at не трогаем, меняется только право
		queryUpdate := `UPDATE shares SET permission = $1 WHERE id = $2 RETURNING granted_at`

		err = tx.QueryRow(ctx, queryUpdate, shareToGrant.Permission, existingID).Scan(&shareToGrant.GrantedAt)
		if err != nil {
			logger.Error("Repository: Не удалось обновить выдачу доступа", err, zap.Duration("ms", time.Since(start)))
			return false, fmt.Errorf("обновление выдачи доступа: %w", err)
		}
		shareToGrant.ID = existingID
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось завершить транзакцию", err)
		return false, fmt.Errorf("завершение транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Долгая выдача доступа", zap.Duration("ms", time.Since(start)))
	}

	return created, nil
}

func (s *Storage) GetByTaskAndGrantee(ctx context.Context, taskID, granteeID uuid.UUID) (*share.Share, error) {
	query := `SELECT id, task_id, grantee_id, permission, granted_at
				FROM shares WHERE task_id = $1 AND grantee_id = $2`

	sh := &share.Share{}
	err := s.pool.QueryRow(ctx, query, taskID, granteeID).Scan(
		&sh.ID, &sh.TaskID, &sh.GranteeID, &sh.Permission, &sh.GrantedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить выдачу доступа", err)
		return nil, fmt.Errorf("получение выдачи доступа: %w", err)
	}

	return sh, nil
}

func (s *Storage) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*share.Share, error) {
	start := time.Now()

	query := `SELECT id, task_id, grantee_id, permission, granted_at
				FROM shares WHERE task_id = $1
				ORDER BY granted_at DESC`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить список выдач", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение списка выдач: %w", err)
	}
	defer rows.Close()

	shares := []*share.Share{}
	for rows.Next() {
		sh := &share.Share{}
		if err := rows.Scan(&sh.ID, &sh.TaskID, &sh.GranteeID, &sh.Permission, &sh.GrantedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования выдачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование выдачи: %w", err)
		}
		shares = append(shares, sh)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return shares, nil
}

func (s *Storage) Delete(ctx context.Context, taskID, granteeID uuid.UUID) error {
	query := `DELETE FROM shares WHERE task_id = $1 AND grantee_id = $2`

	tag, err := s.pool.Exec(ctx, query, taskID, granteeID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить выдачу доступа", err)
		return fmt.Errorf("удаление выдачи доступа: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

// DeleteByTask снимает все выдачи задачи. Отсутствие выдач не ошибка:
// в postgres строки уже каскадно удалены вместе с задачей.
func (s *Storage) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	query := `DELETE FROM shares WHERE task_id = $1`

	if _, err := s.pool.Exec(ctx, query, taskID); err != nil {
		logger.Error("Repository: Не удалось удалить выдачи задачи", err)
		return fmt.Errorf("удаление выдач задачи: %w", err)
	}

	return nil
}
