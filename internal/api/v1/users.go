package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/access"
	"github.com/apexhq/trackline/internal/auth"
	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/server/middleware"
)

type CreateUserInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"100" doc:"Login name"`
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"8" doc:"Initial password"`
		Role     string `json:"role" enum:"admin,member" doc:"Account role"`
	}
}

type CreateUserOutput struct {
	Body *domain.User
}

type ListUsersOutput struct {
	Body []*domain.User
}

type GetUserInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type GetUserOutput struct {
	Body *domain.User
}

type UpdateUserInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Email    string `json:"email,omitempty" format:"email" doc:"Email address"`
		Password string `json:"password,omitempty" minLength:"8" doc:"New password"`
		Role     string `json:"role,omitempty" enum:"admin,member" doc:"Account role"`
		IsActive *bool  `json:"is_active,omitempty" doc:"Whether the account may sign in"`
	}
}

type UpdateUserOutput struct {
	Body *domain.User
}

type DeleteUserInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

// RegisterUserRoutes covers admin account provisioning. Authentication
// itself happens at the identity provider; these endpoints manage the
// account records it authenticates against.
func RegisterUserRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-user",
		Method:      http.MethodPost,
		Path:        "/users",
		Summary:     "Provision a user account",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *CreateUserInput) (*CreateUserOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if existing, err := store.Users().GetByUsername(ctx, input.Body.Username); err == nil && existing != nil {
			return nil, huma.Error409Conflict("username already taken")
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error500InternalServerError("failed to check username", err)
		}

		hash, err := auth.HashPassword(input.Body.Password)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to hash password", err)
		}

		u := &domain.User{
			ID:           uuid.New(),
			Username:     input.Body.Username,
			Email:        input.Body.Email,
			PasswordHash: hash,
			Role:         input.Body.Role,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}

		if err := store.Users().Create(ctx, u); err != nil {
			return nil, huma.Error500InternalServerError("failed to create user", err)
		}

		// New accounts show up in member pickers and stats; same signal as
		// the other account mutations.
		notify(ctx, pub, changefeed.Global(changefeed.KindMembers))
		return &CreateUserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List user accounts",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		users, err := store.Users().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}

		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user account by ID",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*GetUserOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		// Users may read their own account; everything else is admin-only.
		if !requester.IsAdmin() && requester.UserID != input.ID {
			return nil, huma.Error403Forbidden("admin role required")
		}

		u, err := store.Users().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		return &GetUserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/users/{id}",
		Summary:     "Update a user account",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserInput) (*UpdateUserOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		existing, err := store.Users().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		if input.Body.Email != "" {
			existing.Email = input.Body.Email
		}
		if input.Body.Password != "" {
			hash, err := auth.HashPassword(input.Body.Password)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to hash password", err)
			}
			existing.PasswordHash = hash
		}
		if input.Body.Role != "" {
			existing.Role = input.Body.Role
		}
		if input.Body.IsActive != nil {
			existing.IsActive = *input.Body.IsActive
		}

		if err := store.Users().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update user", err)
		}

		// Role and active flips change who appears in member lists and what
		// they may see.
		notify(ctx, pub, changefeed.Global(changefeed.KindMembers))
		return &UpdateUserOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{id}",
		Summary:     "Delete a user account",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *DeleteUserInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageProjects(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if requester.UserID == input.ID {
			return nil, huma.Error400BadRequest("cannot delete your own account")
		}

		if err := store.Users().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete user", err)
		}

		// Memberships referencing the account are removed with it; viewers
		// of member lists re-fetch on this signal.
		notify(ctx, pub, changefeed.Global(changefeed.KindMembers))
		return nil, nil
	})
}
