package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// DefaultEventColor matches the timeline's amber phase bars.
const DefaultEventColor = "#ffc107"

// TimelineEvent is a scheduled phase on a project roadmap. Start and End are
// inclusive calendar days. Lane placement is derived at render time and never
// stored.
type TimelineEvent struct {
	ID          uuid.UUID   `json:"id"`
	ProjectID   uuid.UUID   `json:"project_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   Date        `json:"start_date"`
	EndDate     Date        `json:"end_date"`
	Color       string      `json:"color"`
	Assignees   []uuid.UUID `json:"assignees"`
}

// NewTimelineEvent validates and constructs a TimelineEvent.
func NewTimelineEvent(projectID uuid.UUID, name, description string, start, end Date, color string) (*TimelineEvent, error) {
	if projectID == uuid.Nil {
		return nil, errors.New("event: project ID is required")
	}
	if name == "" {
		return nil, errors.New("event: name is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("event: start and end dates are required")
	}
	if end.Before(start) {
		return nil, errors.New("event: end date precedes start date")
	}
	if color == "" {
		color = DefaultEventColor
	}
	return &TimelineEvent{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		Color:       color,
	}, nil
}

// Reschedule shifts both dates by the given day offset, preserving duration.
func (e *TimelineEvent) Reschedule(days int) {
	e.StartDate = e.StartDate.AddDays(days)
	e.EndDate = e.EndDate.AddDays(days)
}

// Duration returns the inclusive length of the event in days.
func (e *TimelineEvent) Duration() int {
	return e.StartDate.DaysUntil(e.EndDate) + 1
}

// EventRepository persists timeline events. Create and Update cover the
// event row and its full assignee set in one transaction, so a partial
// write never becomes visible.
type EventRepository interface {
	Create(ctx context.Context, e *TimelineEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*TimelineEvent, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*TimelineEvent, error)
	Update(ctx context.Context, e *TimelineEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}
