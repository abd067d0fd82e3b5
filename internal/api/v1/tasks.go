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

type CreateTaskInput struct {
	Body struct {
		ProjectID   uuid.UUID    `json:"project_id" doc:"Project ID"`
		Name        string       `json:"name" minLength:"1" maxLength:"500" doc:"Task name"`
		Description string       `json:"description,omitempty" doc:"Task description"`
		DueDate     *domain.Date `json:"due_date,omitempty" doc:"Due date (YYYY-MM-DD)"`
		AssignedTo  *uuid.UUID   `json:"assigned_to,omitempty" doc:"Assigned user ID"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Name        string       `json:"name,omitempty" maxLength:"500" doc:"Task name"`
		Description *string      `json:"description,omitempty" doc:"Task description"`
		DueDate     *domain.Date `json:"due_date,omitempty" doc:"Due date"`
		AssignedTo  *uuid.UUID   `json:"assigned_to,omitempty" doc:"Assigned user ID"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

type UpdateTaskStatusOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

func RegisterTaskRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageTasks(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if _, err := store.Projects().GetByID(ctx, input.Body.ProjectID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate project")
		}

		now := time.Now()
		t := &domain.Task{
			ID:          uuid.New(),
			ProjectID:   input.Body.ProjectID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Status:      domain.TaskStatusTodo,
			DueDate:     input.Body.DueDate,
			AssignedTo:  input.Body.AssignedTo,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Tasks().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindTask, t.ProjectID, t.ID))
		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks for a project, scoped to the requester",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
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

		// Members get only their own assignments; the filter runs in the
		// query, not after the fact.
		tasks, err := access.ListVisibleTasks(ctx, store.Tasks(), requester, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}

		return &ListTasksOutput{Body: tasks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		t, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		// Out-of-scope reads 404 rather than 403 so the response does not
		// confirm the task exists.
		if !access.CanSeeTask(requester, t) {
			return nil, huma.Error404NotFound("task not found")
		}

		return &GetTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageTasks(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.DueDate != nil {
			existing.DueDate = input.Body.DueDate
		}
		if input.Body.AssignedTo != nil {
			existing.AssignedTo = input.Body.AssignedTo
		}
		existing.UpdatedAt = time.Now()

		err = store.Tasks().Update(ctx, existing)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindTask, existing.ProjectID, existing.ID))
		return &UpdateTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/status",
		Summary:     "Update task status",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskStatusInput) (*UpdateTaskStatusOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if !access.CanUpdateTaskStatus(requester, existing) {
			return nil, huma.Error403Forbidden("task is not assigned to you")
		}

		target := domain.TaskStatus(input.Body.Status)
		if !target.Valid() {
			return nil, huma.Error400BadRequest("unknown task status: " + input.Body.Status)
		}

		err = store.Tasks().UpdateStatus(ctx, input.ID, target)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update task status", err)
		}

		existing.Status = target
		existing.UpdatedAt = time.Now()

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindTask, existing.ProjectID, existing.ID))
		return &UpdateTaskStatusOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageTasks(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if err := store.Tasks().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		notify(ctx, pub, changefeed.ForEntity(changefeed.KindTask, existing.ProjectID, existing.ID))
		return nil, nil
	})
}
