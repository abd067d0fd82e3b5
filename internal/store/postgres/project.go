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

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, start_date, end_date, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Create: %w", err)
	}

	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, status, start_date, end_date, created_by, created_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Name, &p.Description, &p.Status,
		&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("projectRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("projectRepo.GetByID: %w", err)
	}

	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET name = $1, description = $2, status = $3, start_date = $4, end_date = $5
		 WHERE id = $6`,
		p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.ID,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, status, start_date, end_date, created_by, created_at
		 FROM projects
		 ORDER BY start_date DESC
		 LIMIT 1000`,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.List: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows, "projectRepo.List")
}

func (r *ProjectRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.status, p.start_date, p.end_date, p.created_by, p.created_at
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 WHERE pm.user_id = $1
		 ORDER BY p.start_date DESC
		 LIMIT 1000`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListByMember: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows, "projectRepo.ListByMember")
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProjectRepo) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT project_id, user_id, role_label
		 FROM project_members WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.RoleLabel); err != nil {
			return nil, fmt.Errorf("projectRepo.ListMembers: scan: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projectRepo.ListMembers: rows: %w", err)
	}

	return members, nil
}

func (r *ProjectRepo) ListMemberStats(ctx context.Context, projectID uuid.UUID) ([]*domain.MemberStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pm.user_id, u.username, pm.role_label,
		        COUNT(t.id) AS total_tasks,
		        COUNT(t.id) FILTER (WHERE t.status = 'done') AS completed_tasks
		 FROM project_members pm
		 JOIN users u ON u.id = pm.user_id
		 LEFT JOIN tasks t ON t.project_id = pm.project_id AND t.assigned_to = pm.user_id
		 WHERE pm.project_id = $1
		 GROUP BY pm.user_id, u.username, pm.role_label
		 ORDER BY u.username`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.ListMemberStats: %w", err)
	}
	defer rows.Close()

	var stats []*domain.MemberStats
	for rows.Next() {
		var s domain.MemberStats
		if err := rows.Scan(&s.UserID, &s.Username, &s.RoleLabel, &s.TotalTasks, &s.CompletedTasks); err != nil {
			return nil, fmt.Errorf("projectRepo.ListMemberStats: scan: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projectRepo.ListMemberStats: rows: %w", err)
	}

	return stats, nil
}

// ReplaceMembers swaps the full membership set for a project in one
// transaction, mirroring the replace-all semantics of the members endpoint.
func (r *ProjectRepo) ReplaceMembers(ctx context.Context, projectID uuid.UUID, members []*domain.Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("projectRepo.ReplaceMembers: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("projectRepo.ReplaceMembers: clear: %w", err)
	}

	for _, m := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id, role_label) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			projectID, m.UserID, m.RoleLabel,
		); err != nil {
			return fmt.Errorf("projectRepo.ReplaceMembers: insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("projectRepo.ReplaceMembers: commit: %w", err)
	}

	return nil
}

func (r *ProjectRepo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("projectRepo.IsMember: %w", err)
	}

	return exists, nil
}

func scanProjects(rows pgx.Rows, caller string) ([]*domain.Project, error) {
	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Status,
			&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return projects, nil
}
