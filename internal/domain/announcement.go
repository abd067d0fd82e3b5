package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Announcement is a site-wide notice visible to every user.
type Announcement struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedBy uuid.UUID `json:"created_by"`
	Author    string    `json:"author,omitempty"` // joined username, read paths only
	CreatedAt time.Time `json:"created_at"`
}

type AnnouncementRepository interface {
	Create(ctx context.Context, a *Announcement) error
	List(ctx context.Context) ([]*Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
