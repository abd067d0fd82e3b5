package changefeed

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// sessionBuffer bounds how far a slow session may lag before deliveries to
// it are dropped. Delivery is best-effort and at-most-once; a session that
// misses events catches up on its next explicit fetch.
const sessionBuffer = 16

// Registry is the set of currently connected sessions. It exists only in
// server memory: a session lives from connect to disconnect and is nothing
// more than a broadcast target.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]chan []byte
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]chan []byte)}
}

// Add registers a session and returns its id and delivery channel. The
// channel is closed by Remove.
func (r *Registry) Add() (uuid.UUID, <-chan []byte) {
	id := uuid.New()
	ch := make(chan []byte, sessionBuffer)

	r.mu.Lock()
	r.sessions[id] = ch
	r.mu.Unlock()

	return id, ch
}

// Remove unregisters a session and closes its channel. Safe to call for an
// already-removed id.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	ch, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Len returns the number of connected sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast delivers payload to every connected session. Sends never block:
// a session whose buffer is full misses this event.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, ch := range r.sessions {
		select {
		case ch <- payload:
		default:
			log.Debug().Str("session_id", id.String()).Msg("changefeed: dropping event for slow session")
		}
	}
}
