// Package changefeed carries typed invalidation signals from mutation
// handlers to every connected session. An event never contains entity state;
// receivers re-fetch whatever the event made stale.
package changefeed

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the change-event union. Receivers must ignore kinds
// they do not recognise so new ones can be added without breaking old
// clients.
type Kind string

const (
	KindTask         Kind = "task"
	KindEvent        Kind = "event"
	KindLog          Kind = "log"
	KindAnnouncement Kind = "announcement"
	KindProject      Kind = "project"
	KindMembers      Kind = "members"
)

// Known reports whether k is a kind this build understands.
func (k Kind) Known() bool {
	switch k {
	case KindTask, KindEvent, KindLog, KindAnnouncement, KindProject, KindMembers:
		return true
	default:
		return false
	}
}

// Event is the wire payload: kind plus the minimal scope a receiver needs to
// decide relevance. ProjectID is nil for site-wide kinds (announcements).
type Event struct {
	Kind      Kind       `json:"kind"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	EntityID  *uuid.UUID `json:"entityId,omitempty"`
}

// ForProject builds a project-scoped event.
func ForProject(kind Kind, projectID uuid.UUID) Event {
	return Event{Kind: kind, ProjectID: &projectID}
}

// ForEntity builds a project-scoped event carrying the entity id as well.
func ForEntity(kind Kind, projectID, entityID uuid.UUID) Event {
	return Event{Kind: kind, ProjectID: &projectID, EntityID: &entityID}
}

// Global builds an unscoped event (announcements, account changes).
func Global(kind Kind) Event {
	return Event{Kind: kind}
}

func (e Event) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("changefeed.Event.Marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a wire payload. Unknown kinds decode successfully; the
// caller checks Known and drops them.
func Unmarshal(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("changefeed.Unmarshal: %w", err)
	}
	return e, nil
}
