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

type CreateAnnouncementInput struct {
	Body struct {
		Title   string `json:"title" minLength:"1" maxLength:"200" doc:"Announcement title"`
		Message string `json:"message" minLength:"1" doc:"Announcement body"`
	}
}

type CreateAnnouncementOutput struct {
	Body *domain.Announcement
}

type ListAnnouncementsOutput struct {
	Body []*domain.Announcement
}

type DeleteAnnouncementInput struct {
	ID uuid.UUID `path:"id" doc:"Announcement ID"`
}

func RegisterAnnouncementRoutes(api huma.API, store DataStore, pub changefeed.Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-announcement",
		Method:      http.MethodPost,
		Path:        "/announcements",
		Summary:     "Post a global announcement",
		Tags:        []string{"Announcements"},
	}, func(ctx context.Context, input *CreateAnnouncementInput) (*CreateAnnouncementOutput, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageAnnouncements(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		a := &domain.Announcement{
			ID:        uuid.New(),
			Title:     input.Body.Title,
			Message:   input.Body.Message,
			CreatedBy: requester.UserID,
			CreatedAt: time.Now(),
		}

		if err := store.Announcements().Create(ctx, a); err != nil {
			return nil, huma.Error500InternalServerError("failed to create announcement", err)
		}

		// Announcements are global: no project scope on the event.
		notify(ctx, pub, changefeed.Global(changefeed.KindAnnouncement))
		return &CreateAnnouncementOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-announcements",
		Method:      http.MethodGet,
		Path:        "/announcements",
		Summary:     "List announcements, newest first",
		Tags:        []string{"Announcements"},
	}, func(ctx context.Context, _ *struct{}) (*ListAnnouncementsOutput, error) {
		if _, ok := middleware.IdentityFromContext(ctx); !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}

		announcements, err := store.Announcements().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list announcements", err)
		}

		return &ListAnnouncementsOutput{Body: announcements}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-announcement",
		Method:      http.MethodDelete,
		Path:        "/announcements/{id}",
		Summary:     "Delete an announcement",
		Tags:        []string{"Announcements"},
	}, func(ctx context.Context, input *DeleteAnnouncementInput) (*struct{}, error) {
		requester, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing identity context")
		}
		if !access.CanManageAnnouncements(requester) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if err := store.Announcements().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("announcement not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete announcement", err)
		}

		notify(ctx, pub, changefeed.Global(changefeed.KindAnnouncement))
		return nil, nil
	})
}
