package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Log is a dated project journal entry.
type Log struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Content   string    `json:"content"`
	LogDate   Date      `json:"log_date"`
	CreatedBy uuid.UUID `json:"created_by"`
	Author    string    `json:"author,omitempty"` // joined username, read paths only
	CreatedAt time.Time `json:"created_at"`
}

type LogRepository interface {
	Create(ctx context.Context, l *Log) error
	GetByID(ctx context.Context, id uuid.UUID) (*Log, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Log, error)
	Update(ctx context.Context, l *Log) error
	Delete(ctx context.Context, id uuid.UUID) error
}
