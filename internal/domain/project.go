package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	StartDate   Date          `json:"start_date"`
	EndDate     Date          `json:"end_date"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Member is a user's membership in a project. RoleLabel is a free-text
// label ("Programmer", "Documentation", ...) distinct from the account role.
type Member struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	RoleLabel string    `json:"role_label"`
}

// MemberStats is a member row joined with task completion counts.
type MemberStats struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	RoleLabel      string    `json:"role_label"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
}

// NewProject creates a Project with validated required fields.
func NewProject(name, description string, start, end Date, createdBy uuid.UUID) (*Project, error) {
	if name == "" {
		return nil, errors.New("project: name is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("project: start and end dates are required")
	}
	if end.Before(start) {
		return nil, errors.New("project: end date precedes start date")
	}
	return &Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Status:      ProjectStatusPlanning,
		StartDate:   start,
		EndDate:     end,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}, nil
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) error
	List(ctx context.Context) ([]*Project, error)
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Membership. ReplaceMembers swaps the full membership set atomically.
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*Member, error)
	ListMemberStats(ctx context.Context, projectID uuid.UUID) ([]*MemberStats, error)
	ReplaceMembers(ctx context.Context, projectID uuid.UUID, members []*Member) error
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}
