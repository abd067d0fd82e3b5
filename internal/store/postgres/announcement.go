package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexhq/trackline/internal/domain"
)

type AnnouncementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) *AnnouncementRepo {
	return &AnnouncementRepo{pool: pool}
}

func (r *AnnouncementRepo) Create(ctx context.Context, a *domain.Announcement) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO announcements (id, title, message, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Title, a.Message, a.CreatedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("announcementRepo.Create: %w", err)
	}

	return nil
}

func (r *AnnouncementRepo) List(ctx context.Context) ([]*domain.Announcement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.title, a.message, a.created_by, u.username, a.created_at
		 FROM announcements a
		 JOIN users u ON u.id = a.created_by
		 ORDER BY a.created_at DESC
		 LIMIT 200`,
	)
	if err != nil {
		return nil, fmt.Errorf("announcementRepo.List: %w", err)
	}
	defer rows.Close()

	var items []*domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.CreatedBy, &a.Author, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("announcementRepo.List: scan: %w", err)
		}
		items = append(items, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("announcementRepo.List: rows: %w", err)
	}

	return items, nil
}

func (r *AnnouncementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM announcements WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("announcementRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("announcementRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
