package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexhq/trackline/internal/domain"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) Create(ctx context.Context, l *domain.Log) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_logs (id, project_id, content, log_date, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.ProjectID, l.Content, l.LogDate, l.CreatedBy, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("logRepo.Create: %w", err)
	}

	return nil
}

func (r *LogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Log, error) {
	var l domain.Log

	err := r.pool.QueryRow(ctx,
		`SELECT l.id, l.project_id, l.content, l.log_date, l.created_by, u.username, l.created_at
		 FROM project_logs l
		 JOIN users u ON u.id = l.created_by
		 WHERE l.id = $1`,
		id,
	).Scan(&l.ID, &l.ProjectID, &l.Content, &l.LogDate, &l.CreatedBy, &l.Author, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("logRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("logRepo.GetByID: %w", err)
	}

	return &l, nil
}

func (r *LogRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Log, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.project_id, l.content, l.log_date, l.created_by, u.username, l.created_at
		 FROM project_logs l
		 JOIN users u ON u.id = l.created_by
		 WHERE l.project_id = $1
		 ORDER BY l.log_date DESC, l.created_at DESC
		 LIMIT 1000`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("logRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var logs []*domain.Log
	for rows.Next() {
		var l domain.Log
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Content, &l.LogDate, &l.CreatedBy, &l.Author, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("logRepo.ListByProject: scan: %w", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("logRepo.ListByProject: rows: %w", err)
	}

	return logs, nil
}

func (r *LogRepo) Update(ctx context.Context, l *domain.Log) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE project_logs SET content = $1, log_date = $2 WHERE id = $3`,
		l.Content, l.LogDate, l.ID,
	)
	if err != nil {
		return fmt.Errorf("logRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("logRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *LogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_logs WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("logRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("logRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
