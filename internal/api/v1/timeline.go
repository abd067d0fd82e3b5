package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/server/middleware"
	"github.com/apexhq/trackline/internal/timeline"
)

type GetTimelineInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type GetTimelineOutput struct {
	Body *timeline.Layout
}

type GetTimelineSettingsOutput struct {
	Body timeline.Options
}

// RegisterTimelineRoutes serves the computed timeline geometry for a project.
// opts carry the server's render settings; zero fields fall back to the
// renderer's defaults.
func RegisterTimelineRoutes(api huma.API, store DataStore, opts timeline.Options) {
	huma.Register(api, huma.Operation{
		OperationID: "get-project-timeline",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/timeline",
		Summary:     "Computed timeline layout for a project",
		Description: "Packs the project's events into non-overlapping lanes and maps them to pixel geometry. Malformed events are listed in `skipped` rather than failing the layout.",
		Tags:        []string{"Timeline"},
	}, func(ctx context.Context, input *GetTimelineInput) (*GetTimelineOutput, error) {
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

		if _, err := store.Projects().GetByID(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to get project", err)
		}

		events, err := store.Events().ListByProject(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		layout, err := timeline.Compute(events, opts)
		if err != nil {
			if errors.Is(err, timeline.ErrWindowTooWide) {
				return nil, huma.Error422UnprocessableEntity("event span exceeds the renderable window")
			}
			return nil, huma.Error500InternalServerError("failed to compute timeline", err)
		}

		return &GetTimelineOutput{Body: layout}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-timeline-settings",
		Method:      http.MethodGet,
		Path:        "/timeline/settings",
		Summary:     "Effective timeline render settings",
		Description: "Clients use these to mirror the server's pixel mapping, in particular the day width used to translate drag offsets into day shifts.",
		Tags:        []string{"Timeline"},
	}, func(ctx context.Context, _ *struct{}) (*GetTimelineSettingsOutput, error) {
		if _, ok := middleware.IdentityFromContext(ctx); !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		return &GetTimelineSettingsOutput{Body: opts.Effective()}, nil
	})
}
