// Package ws upgrades authenticated HTTP requests into change-feed sessions.
// A session is write-only from the server's point of view: the client gets a
// stream of invalidation events and re-fetches over plain HTTP.
package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/server/middleware"
)

// Hub hands browser connections to the session registry.
type Hub struct {
	registry *changefeed.Registry
}

func NewHub(registry *changefeed.Registry) *Hub {
	return &Hub{registry: registry}
}

// ServeChanges handles WebSocket connections for the change feed. Every
// connected session receives every event; the client decides relevance
// against its current view.
func (h *Hub) ServeChanges(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// The client never sends application messages; CloseRead keeps control
	// frames flowing and cancels the context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	sessionID, messages := h.registry.Add()
	defer h.registry.Remove(sessionID)

	log.Debug().
		Str("session_id", sessionID.String()).
		Str("user_id", userID.String()).
		Int("sessions", h.registry.Len()).
		Msg("changefeed session connected")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "session removed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Str("session_id", sessionID.String()).Msg("websocket write")
				return
			}
		}
	}
}
