package changefeed

import (
	"context"

	"github.com/google/uuid"
)

// Page names the collection a client is currently rendering.
type Page string

const (
	PageTasks         Page = "tasks"
	PageTimeline      Page = "timeline"
	PageLogs          Page = "logs"
	PageMembers       Page = "members"
	PageProjects      Page = "projects"
	PageAnnouncements Page = "announcements"
)

// View is an immutable descriptor of what a client is looking at right now.
// It is passed into the match predicate explicitly so the routing logic can
// be tested without a live UI.
type View struct {
	Page      Page
	ProjectID uuid.UUID
}

// pageKinds maps each page to the event kind that invalidates it.
var pageKinds = map[Page]Kind{
	PageTasks:         KindTask,
	PageTimeline:      KindEvent,
	PageLogs:          KindLog,
	PageMembers:       KindMembers,
	PageProjects:      KindProject,
	PageAnnouncements: KindAnnouncement,
}

// Matches reports whether ev makes the view stale. Global events match
// whenever the page does. Project-scoped events require the project to
// match, except for views with no project of their own (the project list,
// cross-project dashboards): those render rows from every project, so any
// scope of their kind makes them stale. Unknown kinds never match.
func (v View) Matches(ev Event) bool {
	if !ev.Kind.Known() {
		return false
	}
	if pageKinds[v.Page] != ev.Kind {
		return false
	}
	if ev.ProjectID == nil {
		return true
	}
	if v.ProjectID == uuid.Nil {
		return true
	}
	return *ev.ProjectID == v.ProjectID
}

// Fetcher re-fetches the collection a view renders. The push payload is
// never applied as state; the server's filtered, sorted response is the only
// authority.
type Fetcher func(ctx context.Context, view View) error

// Router decides, per received event, whether the active view must
// re-fetch. Announcements off-screen only bump an unread counter.
type Router struct {
	view        View
	fetch       Fetcher
	unreadCount int
}

func NewRouter(view View, fetch Fetcher) *Router {
	return &Router{view: view, fetch: fetch}
}

// View returns the current view descriptor.
func (r *Router) View() View { return r.view }

// SetView replaces the view descriptor on navigation and clears the unread
// badge when the announcements page opens.
func (r *Router) SetView(view View) {
	r.view = view
	if view.Page == PageAnnouncements {
		r.unreadCount = 0
	}
}

// Unread returns the announcement badge count.
func (r *Router) Unread() int { return r.unreadCount }

// HandleEvent processes one received payload. It returns true when the
// active view was re-fetched. Malformed payloads and unknown kinds are
// ignored.
func (r *Router) HandleEvent(ctx context.Context, payload []byte) (bool, error) {
	ev, err := Unmarshal(payload)
	if err != nil {
		return false, nil // not our protocol; drop
	}
	if !ev.Kind.Known() {
		return false, nil
	}

	if r.view.Matches(ev) {
		if err := r.fetch(ctx, r.view); err != nil {
			return false, err
		}
		return true, nil
	}

	if ev.Kind == KindAnnouncement {
		r.unreadCount++
	}
	return false, nil
}
