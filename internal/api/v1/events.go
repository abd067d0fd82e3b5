package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/access"
	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/server/middleware"
)

type CreateEventInput struct {
	Body struct {
		ProjectID   uuid.UUID   `json:"project_id" doc:"Project ID"`
		Name        string      `json:"name" minLength:"1" maxLength:"200" doc:"Event name"`
		Description string      `json:"description,omitempty" doc:"Event description"`
		StartDate   domain.Date `json:"start_date" doc:"Start date (YYYY-MM-DD)"`
		EndDate     domain.Date `json:"end_date" doc:"End date (YYYY-MM-DD)"`
		Color       string      `json:"color,omitempty" pattern:"^#[0-9a-fA-F]{6}$" doc:"Bar color, defaults to #ffc107"`
		Assignees   []uuid.UUID `json:"assignees,omitempty" doc:"Assigned user IDs"`
	}
}

type CreateEventOutput struct {
	Body *domain.TimelineEvent
}

type ListEventsInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
}

type ListEventsOutput struct {
	Body []*domain.TimelineEvent
}

type GetEventInput struct {
	ID uuid.UUID `path:"id" doc:"Event ID"`
}

type GetEventOutput struct {
	Body *domain.TimelineEvent
}

type UpdateEventInput struct {
	ID   uuid.UUID `path:"id" doc:"Event ID"`
	Body struct {
		Name        string      `json:"name,omitempty" maxLength:"200" doc:"Event name"`
		Description *string     `json:"description,omitempty" doc:"Event description"`
		StartDate   domain.Date `json:"start_date,omitempty" doc:"Start date"`
		EndDate     domain.Date `json:"end_date,omitempty" doc:"End date"`
		Color       string      `json:"color,omitempty" pattern:"^#[0-9a-fA-F]{6}$" doc:"Bar color"`
		Assignees   []uuid.UUID `json:"assignees,omitempty" doc:"Full assignee set; replaces existing assignees"`
	}
}

type UpdateEventOutput struct {
	Body *domain.TimelineEvent
}

type RescheduleEventInput struct {
	ID   uuid.UUID `path:"id" doc:"Event ID"`
	Body struct {
		StartDate domain.Date `json:"start_date" doc:"New start date (YYYY-MM-DD)"`
		EndDate   domain.Date `json:"end_date" doc:"New end date (YYYY-MM-DD)"`
		Assignees []uuid.UUID `json:"assignees,omitempty" doc:"Optional full assignee set to apply with the move"`
	}
}

type RescheduleEventOutput struct {
	Body *domain.TimelineEvent
}

type DeleteEventInput struct {
	ID uuid.UUID `path:"id" doc:"Event ID"`
}

func RegisterEventRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-event",
		Method:      http.MethodPost,
		Path:        "/events",
		Summary:     "Create a timeline event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *CreateEventInput) (*CreateEventOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanEditSchedule(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if _, err := store.Projects().GetByID(ctx, input.Body.ProjectID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate project")
		}

		e, err := domain.NewTimelineEvent(input.Body.ProjectID, input.Body.Name, input.Body.Description, input.Body.StartDate, input.Body.EndDate, input.Body.Color)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		e.Assignees = input.Body.Assignees

		if err := store.Events().Create(ctx, e); err != nil {
			return nil, huma.Error500InternalServerError("failed to create event", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindEvent, e.ProjectID, e.ID))
		return &CreateEventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List timeline events for a project",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, input.ProjectID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("project not found")
			}
		}

		events, err := store.Events().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		return &ListEventsOutput{Body: events}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{id}",
		Summary:     "Get a timeline event by ID",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *GetEventInput) (*GetEventOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		e, err := store.Events().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to get event", err)
		}

		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, e.ProjectID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("event not found")
			}
		}

		return &GetEventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-event",
		Method:      http.MethodPut,
		Path:        "/events/{id}",
		Summary:     "Update a timeline event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *UpdateEventInput) (*UpdateEventOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanEditSchedule(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Events().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to get event", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if !input.Body.StartDate.IsZero() {
			existing.StartDate = input.Body.StartDate
		}
		if !input.Body.EndDate.IsZero() {
			existing.EndDate = input.Body.EndDate
		}
		if input.Body.Color != "" {
			existing.Color = input.Body.Color
		}
		if existing.EndDate.Before(existing.StartDate) {
			return nil, huma.Error400BadRequest("end date precedes start date")
		}
		if input.Body.Assignees != nil {
			existing.Assignees = input.Body.Assignees
		}

		// One transactional write covers the row and the assignee set, so
		// either everything below persisted and fans out, or nothing did.
		if err := store.Events().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update event", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindEvent, existing.ProjectID, existing.ID))
		return &UpdateEventOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reschedule-event",
		Method:      http.MethodPut,
		Path:        "/events/{id}/schedule",
		Summary:     "Commit a reschedule of a timeline event",
		Description: "The commit target for drag-reschedule gestures: the client sends the shifted dates, duration already preserved. Concurrent commits to the same event resolve last write wins.",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *RescheduleEventInput) (*RescheduleEventOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanEditSchedule(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if input.Body.StartDate.IsZero() || input.Body.EndDate.IsZero() {
			return nil, huma.Error400BadRequest("start and end dates are required")
		}
		if input.Body.EndDate.Before(input.Body.StartDate) {
			return nil, huma.Error400BadRequest("end date precedes start date")
		}

		existing, err := store.Events().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to get event", err)
		}

		// A zero-day drag snaps back client-side; an identical commit that
		// still reaches us is a valid no-op and publishes nothing.
		unchanged := existing.StartDate.Equal(input.Body.StartDate) &&
			existing.EndDate.Equal(input.Body.EndDate) &&
			input.Body.Assignees == nil
		if unchanged {
			return &RescheduleEventOutput{Body: existing}, nil
		}

		existing.StartDate = input.Body.StartDate
		existing.EndDate = input.Body.EndDate
		if input.Body.Assignees != nil {
			existing.Assignees = input.Body.Assignees
		}

		if err := store.Events().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to reschedule event", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindEvent, existing.ProjectID, existing.ID))
		return &RescheduleEventOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-event",
		Method:      http.MethodDelete,
		Path:        "/events/{id}",
		Summary:     "Delete a timeline event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *DeleteEventInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanEditSchedule(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Events().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("event not found")
			}
			return nil, huma.Error500InternalServerError("failed to get event", err)
		}

		if err := store.Events().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete event", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindEvent, existing.ProjectID, existing.ID))
		return nil, nil
	})
}
