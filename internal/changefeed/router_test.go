package changefeed_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexhq/trackline/internal/changefeed"
)

func mustPayload(t *testing.T, ev changefeed.Event) []byte {
	t.Helper()
	b, err := ev.Marshal()
	require.NoError(t, err)
	return b
}

func TestView_Matches(t *testing.T) {
	t.Parallel()

	p := uuid.New()
	q := uuid.New()

	tests := []struct {
		name string
		view changefeed.View
		ev   changefeed.Event
		want bool
	}{
		{"task event for viewed project", changefeed.View{Page: changefeed.PageTasks, ProjectID: p}, changefeed.ForProject(changefeed.KindTask, p), true},
		{"task event for other project", changefeed.View{Page: changefeed.PageTasks, ProjectID: p}, changefeed.ForProject(changefeed.KindTask, q), false},
		{"task event while viewing timeline", changefeed.View{Page: changefeed.PageTimeline, ProjectID: p}, changefeed.ForProject(changefeed.KindTask, p), false},
		{"timeline event for viewed project", changefeed.View{Page: changefeed.PageTimeline, ProjectID: p}, changefeed.ForProject(changefeed.KindEvent, p), true},
		{"members change for viewed project", changefeed.View{Page: changefeed.PageMembers, ProjectID: p}, changefeed.ForProject(changefeed.KindMembers, p), true},
		{"project event on the project list", changefeed.View{Page: changefeed.PageProjects}, changefeed.ForProject(changefeed.KindProject, p), true},
		{"project event from any scope reaches the list", changefeed.View{Page: changefeed.PageProjects}, changefeed.ForProject(changefeed.KindProject, q), true},
		{"project event while viewing tasks", changefeed.View{Page: changefeed.PageTasks, ProjectID: p}, changefeed.ForProject(changefeed.KindProject, p), false},
		{"global announcement on announcements page", changefeed.View{Page: changefeed.PageAnnouncements}, changefeed.Global(changefeed.KindAnnouncement), true},
		{"global announcement elsewhere", changefeed.View{Page: changefeed.PageTasks, ProjectID: p}, changefeed.Global(changefeed.KindAnnouncement), false},
		{"unknown kind never matches", changefeed.View{Page: changefeed.PageTasks, ProjectID: p}, changefeed.Event{Kind: changefeed.Kind("sprint"), ProjectID: &p}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.view.Matches(tt.ev))
		})
	}
}

func TestRouter_RefetchesOnlyMatchingEvents(t *testing.T) {
	t.Parallel()

	p := uuid.New()
	q := uuid.New()
	var fetches int

	r := changefeed.NewRouter(changefeed.View{Page: changefeed.PageTasks, ProjectID: p},
		func(context.Context, changefeed.View) error {
			fetches++
			return nil
		})

	ctx := context.Background()

	refetched, err := r.HandleEvent(ctx, mustPayload(t, changefeed.ForProject(changefeed.KindTask, p)))
	require.NoError(t, err)
	assert.True(t, refetched)

	refetched, err = r.HandleEvent(ctx, mustPayload(t, changefeed.ForProject(changefeed.KindTask, q)))
	require.NoError(t, err)
	assert.False(t, refetched, "a session viewing an unrelated project performs no re-fetch")

	refetched, err = r.HandleEvent(ctx, []byte(`{"kind":"sprint"}`))
	require.NoError(t, err)
	assert.False(t, refetched, "unknown kinds are ignored for forward compatibility")

	refetched, err = r.HandleEvent(ctx, []byte(`not json`))
	require.NoError(t, err)
	assert.False(t, refetched, "malformed payloads are dropped, not fatal")

	assert.Equal(t, 1, fetches)
}

func TestRouter_ProjectListRefetchesOnAnyProjectChange(t *testing.T) {
	t.Parallel()

	var fetches int
	r := changefeed.NewRouter(changefeed.View{Page: changefeed.PageProjects},
		func(context.Context, changefeed.View) error {
			fetches++
			return nil
		})

	// The exact shape project mutations publish: scoped to the project row.
	id := uuid.New()
	refetched, err := r.HandleEvent(context.Background(),
		mustPayload(t, changefeed.ForEntity(changefeed.KindProject, id, id)))
	require.NoError(t, err)
	assert.True(t, refetched, "the list has no project scope of its own; every project change makes it stale")
	assert.Equal(t, 1, fetches)
}

func TestRouter_AnnouncementBadge(t *testing.T) {
	t.Parallel()

	p := uuid.New()
	r := changefeed.NewRouter(changefeed.View{Page: changefeed.PageTasks, ProjectID: p},
		func(context.Context, changefeed.View) error { return nil })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := r.HandleEvent(ctx, mustPayload(t, changefeed.Global(changefeed.KindAnnouncement)))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.Unread(), "off-screen announcements bump the unread badge")

	r.SetView(changefeed.View{Page: changefeed.PageAnnouncements})
	assert.Zero(t, r.Unread(), "opening the announcements page clears the badge")
}

// ---------------------------------------------------------------------------
// Convergence: every session viewing project P ends up with the list a fresh
// fetch returns; sessions viewing Q do not re-fetch at all.
// ---------------------------------------------------------------------------

type simServer struct {
	tasks map[uuid.UUID][]string // projectID -> task names
}

func (s *simServer) list(projectID uuid.UUID) []string {
	out := make([]string, len(s.tasks[projectID]))
	copy(out, s.tasks[projectID])
	return out
}

type simSession struct {
	router    *changefeed.Router
	rendered  []string
	refetched bool
}

func TestFanout_Convergence(t *testing.T) {
	t.Parallel()

	p := uuid.New()
	q := uuid.New()
	server := &simServer{tasks: map[uuid.UUID][]string{
		p: {"design", "build"},
		q: {"unrelated"},
	}}

	newSession := func(projectID uuid.UUID) *simSession {
		sess := &simSession{}
		sess.router = changefeed.NewRouter(
			changefeed.View{Page: changefeed.PageTasks, ProjectID: projectID},
			func(_ context.Context, v changefeed.View) error {
				sess.rendered = server.list(v.ProjectID)
				sess.refetched = true
				return nil
			})
		// Initial page load.
		sess.rendered = server.list(projectID)
		return sess
	}

	viewersOfP := []*simSession{newSession(p), newSession(p), newSession(p)}
	viewerOfQ := newSession(q)

	// A mutation commits on the server, then fans out to every session.
	server.tasks[p] = append(server.tasks[p], "ship")
	payload := mustPayload(t, changefeed.ForProject(changefeed.KindTask, p))

	ctx := context.Background()
	for _, sess := range viewersOfP {
		_, err := sess.router.HandleEvent(ctx, payload)
		require.NoError(t, err)
	}
	_, err := viewerOfQ.router.HandleEvent(ctx, payload)
	require.NoError(t, err)

	fresh := server.list(p)
	for i, sess := range viewersOfP {
		assert.True(t, sess.refetched, "viewer %d of P must re-fetch", i)
		assert.Equal(t, fresh, sess.rendered, "viewer %d of P converges to a fresh fetch", i)
	}
	assert.False(t, viewerOfQ.refetched, "viewer of Q performs no re-fetch")
	assert.Equal(t, []string{"unrelated"}, viewerOfQ.rendered)
}
