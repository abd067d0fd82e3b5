package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/access"
	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/server/middleware"
)

type CreateLogInput struct {
	Body struct {
		ProjectID uuid.UUID   `json:"project_id" doc:"Project ID"`
		Content   string      `json:"content" minLength:"1" doc:"Log entry text"`
		LogDate   domain.Date `json:"log_date" required:"false" doc:"Date the entry refers to (YYYY-MM-DD)"`
	}
}

type CreateLogOutput struct {
	Body *domain.Log
}

type ListLogsInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
}

type ListLogsOutput struct {
	Body []*domain.Log
}

type UpdateLogInput struct {
	ID   uuid.UUID `path:"id" doc:"Log ID"`
	Body struct {
		Content string      `json:"content,omitempty" doc:"Log entry text"`
		LogDate domain.Date `json:"log_date,omitempty" doc:"Date the entry refers to"`
	}
}

type UpdateLogOutput struct {
	Body *domain.Log
}

type DeleteLogInput struct {
	ID uuid.UUID `path:"id" doc:"Log ID"`
}

func RegisterLogRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-log",
		Method:      http.MethodPost,
		Path:        "/logs",
		Summary:     "Create a project log entry",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *CreateLogInput) (*CreateLogOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		// Any project member may write logs.
		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, input.Body.ProjectID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("project not found")
			}
		}

		logDate := input.Body.LogDate
		if logDate.IsZero() {
			logDate = domain.DateFromTime(time.Now())
		}

		l := &domain.Log{
			ID:        uuid.New(),
			ProjectID: input.Body.ProjectID,
			Content:   input.Body.Content,
			LogDate:   logDate,
			CreatedBy: requester.UserID,
			CreatedAt: time.Now(),
		}

		if err := store.Logs().Create(ctx, l); err != nil {
			return nil, huma.Error500InternalServerError("failed to create log", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindLog, l.ProjectID, l.ID))
		return &CreateLogOutput{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/logs",
		Summary:     "List log entries for a project",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *ListLogsInput) (*ListLogsOutput, error) {
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

		logs, err := store.Logs().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list logs", err)
		}

		return &ListLogsOutput{Body: logs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-log",
		Method:      http.MethodPut,
		Path:        "/logs/{id}",
		Summary:     "Update a log entry",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *UpdateLogInput) (*UpdateLogOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		existing, err := store.Logs().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("log not found")
			}
			return nil, huma.Error500InternalServerError("failed to get log", err)
		}

		if !access.CanEditLog(requester, existing) {
			return nil, huma.Error403Forbidden("only the author or an admin may edit a log")
		}

		if input.Body.Content != "" {
			existing.Content = input.Body.Content
		}
		if !input.Body.LogDate.IsZero() {
			existing.LogDate = input.Body.LogDate
		}

		if err := store.Logs().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update log", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindLog, existing.ProjectID, existing.ID))
		return &UpdateLogOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-log",
		Method:      http.MethodDelete,
		Path:        "/logs/{id}",
		Summary:     "Delete a log entry",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *DeleteLogInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		existing, err := store.Logs().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("log not found")
			}
			return nil, huma.Error500InternalServerError("failed to get log", err)
		}

		if !access.CanEditLog(requester, existing) {
			return nil, huma.Error403Forbidden("only the author or an admin may delete a log")
		}

		if err := store.Logs().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete log", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindLog, existing.ProjectID, existing.ID))
		return nil, nil
	})
}
