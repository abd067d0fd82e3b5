package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/apexhq/trackline/internal/api/v1"
	"github.com/apexhq/trackline/internal/api/ws"
	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/config"
	"github.com/apexhq/trackline/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, pub changefeed.Publisher, cfg *config.Config) {
	v1.RegisterUserRoutes(api, store, pub)
	v1.RegisterProjectRoutes(api, store, pub)
	v1.RegisterTaskRoutes(api, store, pub)
	v1.RegisterEventRoutes(api, store, pub)
	v1.RegisterTimelineRoutes(api, store, cfg.Timeline)
	v1.RegisterLogRoutes(api, store, pub)
	v1.RegisterAnnouncementRoutes(api, store, pub)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/changes", hub.ServeChanges)
}
