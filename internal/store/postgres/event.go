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

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.TimelineEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO project_events (id, project_id, name, description, start_date, end_date, color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProjectID, e.Name, e.Description, e.StartDate, e.EndDate, e.Color,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: %w", err)
	}

	if err := insertAssignees(ctx, tx, e.ID, e.Assignees); err != nil {
		return fmt.Errorf("eventRepo.Create: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("eventRepo.Create: commit: %w", err)
	}

	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimelineEvent, error) {
	var e domain.TimelineEvent

	err := r.pool.QueryRow(ctx,
		`SELECT pe.id, pe.project_id, pe.name, pe.description, pe.start_date, pe.end_date, pe.color,
		        COALESCE(array_agg(ea.user_id) FILTER (WHERE ea.user_id IS NOT NULL), '{}')
		 FROM project_events pe
		 LEFT JOIN event_assignees ea ON ea.event_id = pe.id
		 WHERE pe.id = $1
		 GROUP BY pe.id`,
		id,
	).Scan(
		&e.ID, &e.ProjectID, &e.Name, &e.Description,
		&e.StartDate, &e.EndDate, &e.Color, &e.Assignees,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("eventRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("eventRepo.GetByID: %w", err)
	}

	return &e, nil
}

func (r *EventRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.TimelineEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pe.id, pe.project_id, pe.name, pe.description, pe.start_date, pe.end_date, pe.color,
		        COALESCE(array_agg(ea.user_id) FILTER (WHERE ea.user_id IS NOT NULL), '{}')
		 FROM project_events pe
		 LEFT JOIN event_assignees ea ON ea.event_id = pe.id
		 WHERE pe.project_id = $1
		 GROUP BY pe.id
		 ORDER BY pe.start_date ASC
		 LIMIT 1000`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var events []*domain.TimelineEvent
	for rows.Next() {
		var e domain.TimelineEvent
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.Name, &e.Description,
			&e.StartDate, &e.EndDate, &e.Color, &e.Assignees,
		); err != nil {
			return nil, fmt.Errorf("eventRepo.ListByProject: scan: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventRepo.ListByProject: rows: %w", err)
	}

	return events, nil
}

// Update rewrites the event row and its full assignee set in one
// transaction; a failed assignee swap rolls the date change back with it.
func (r *EventRepo) Update(ctx context.Context, e *domain.TimelineEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE project_events SET name = $1, description = $2, start_date = $3, end_date = $4, color = $5
		 WHERE id = $6`,
		e.Name, e.Description, e.StartDate, e.EndDate, e.Color, e.ID,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eventRepo.Update: %w", domain.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `DELETE FROM event_assignees WHERE event_id = $1`, e.ID)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: clear assignees: %w", err)
	}
	if err := insertAssignees(ctx, tx, e.ID, e.Assignees); err != nil {
		return fmt.Errorf("eventRepo.Update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("eventRepo.Update: commit: %w", err)
	}

	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// event_assignees rows go with the event via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_events WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eventRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func insertAssignees(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, assignees []uuid.UUID) error {
	for _, userID := range assignees {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_assignees (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			eventID, userID,
		); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}
