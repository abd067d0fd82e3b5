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

type CreateProjectInput struct {
	Body struct {
		Name        string      `json:"name" minLength:"1" maxLength:"200" doc:"Project name"`
		Description string      `json:"description,omitempty" doc:"Project description"`
		StartDate   domain.Date `json:"start_date" doc:"Project start date (YYYY-MM-DD)"`
		EndDate     domain.Date `json:"end_date" doc:"Project end date (YYYY-MM-DD)"`
	}
}

type CreateProjectOutput struct {
	Body *domain.Project
}

type ListProjectsOutput struct {
	Body []*domain.Project
}

type GetProjectInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type GetProjectOutput struct {
	Body *domain.Project
}

type UpdateProjectInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		Name        string      `json:"name,omitempty" maxLength:"200" doc:"Project name"`
		Description *string     `json:"description,omitempty" doc:"Project description"`
		Status      string      `json:"status,omitempty" doc:"Project status"`
		StartDate   domain.Date `json:"start_date,omitempty" doc:"Project start date"`
		EndDate     domain.Date `json:"end_date,omitempty" doc:"Project end date"`
	}
}

type UpdateProjectOutput struct {
	Body *domain.Project
}

type DeleteProjectInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ListMembersInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ListMembersOutput struct {
	Body []*domain.Member
}

type ReplaceMembersInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		Members []struct {
			UserID    uuid.UUID `json:"user_id" doc:"User ID"`
			RoleLabel string    `json:"role_label,omitempty" maxLength:"100" doc:"Free-text role label"`
		} `json:"members" doc:"Full membership set; replaces any existing members"`
	}
}

type ReplaceMembersOutput struct {
	Body []*domain.Member
}

type MemberStatsInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type MemberStatsOutput struct {
	Body []*domain.MemberStats
}

func RegisterProjectRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-project",
		Method:      http.MethodPost,
		Path:        "/projects",
		Summary:     "Create a new project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *CreateProjectInput) (*CreateProjectOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		p, err := domain.NewProject(input.Body.Name, input.Body.Description, input.Body.StartDate, input.Body.EndDate, requester.UserID)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Projects().Create(ctx, p); err != nil {
			return nil, huma.Error500InternalServerError("failed to create project", err)
		}

		notify(ctx, pub, changefeed.ForProject(changefeed.KindProject, p.ID))
		return &CreateProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects visible to the requester",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		// Admins see every project; members only the ones they belong to.
		var (
			projects []*domain.Project
			err      error
		)
		if requester.IsAdmin() {
			projects, err = store.Projects().List(ctx)
		} else {
			projects, err = store.Projects().ListByMember(ctx, requester.UserID)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list projects", err)
		}

		return &ListProjectsOutput{Body: projects}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project by ID",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *GetProjectInput) (*GetProjectOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, input.ID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("project not found")
			}
		}

		p, err := store.Projects().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to get project", err)
		}

		return &GetProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{id}",
		Summary:     "Update a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *UpdateProjectInput) (*UpdateProjectOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Projects().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to get project", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Status != "" {
			status := domain.ProjectStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown project status: " + input.Body.Status)
			}
			existing.Status = status
		}
		if !input.Body.StartDate.IsZero() {
			existing.StartDate = input.Body.StartDate
		}
		if !input.Body.EndDate.IsZero() {
			existing.EndDate = input.Body.EndDate
		}
		if existing.EndDate.Before(existing.StartDate) {
			return nil, huma.Error400BadRequest("end date precedes start date")
		}

		if err := store.Projects().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update project", err)
		}

		notify(ctx, pub, changefeed.ForProject(changefeed.KindProject, existing.ID))
		return &UpdateProjectOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{id}",
		Summary:     "Delete a project and all of its contents",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *DeleteProjectInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if err := store.Projects().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete project", err)
		}

		notify(ctx, pub, changefeed.ForProject(changefeed.KindProject, input.ID))
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-members",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/members",
		Summary:     "List project members",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, input.ID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("project not found")
			}
		}

		members, err := store.Projects().ListMembers(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		return &ListMembersOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace-project-members",
		Method:      http.MethodPut,
		Path:        "/projects/{id}/members",
		Summary:     "Replace the full membership set of a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ReplaceMembersInput) (*ReplaceMembersOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if _, err := store.Projects().GetByID(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to get project", err)
		}

		members := make([]*domain.Member, 0, len(input.Body.Members))
		seen := make(map[uuid.UUID]struct{}, len(input.Body.Members))
		for _, m := range input.Body.Members {
			if _, dup := seen[m.UserID]; dup {
				return nil, huma.Error400BadRequest("duplicate member: " + m.UserID.String())
			}
			seen[m.UserID] = struct{}{}
			members = append(members, &domain.Member{
				ProjectID: input.ID,
				UserID:    m.UserID,
				RoleLabel: m.RoleLabel,
			})
		}

		if err := store.Projects().ReplaceMembers(ctx, input.ID, members); err != nil {
			return nil, huma.Error500InternalServerError("failed to replace members", err)
		}

		notify(ctx, pub, changefeed.ForProject(changefeed.KindMembers, input.ID))
		return &ReplaceMembersOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-member-stats",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/stats",
		Summary:     "Per-member task completion stats for a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *MemberStatsInput) (*MemberStatsOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		if !requester.IsAdmin() {
			isMember, err := store.Projects().IsMember(ctx, input.ID, requester.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
			if !isMember {
				return nil, huma.Error404NotFound("project not found")
			}
		}

		stats, err := store.Projects().ListMemberStats(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list member stats", err)
		}

		return &MemberStatsOutput{Body: stats}, nil
	})
}
