package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/access"
	"github.com/apexhq/trackline/internal/changefeed"
	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject identity into context for DoCtx
// ---------------------------------------------------------------------------

func identityCtx(userID uuid.UUID, role string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

func adminCtx(userID uuid.UUID) context.Context {
	return identityCtx(userID, access.RoleAdmin)
}

func memberCtx(userID uuid.UUID) context.Context {
	return identityCtx(userID, access.RoleMember)
}

// ---------------------------------------------------------------------------
// Capture publisher — records change events handlers emit
// ---------------------------------------------------------------------------

type capturePublisher struct {
	mu     sync.Mutex
	events []changefeed.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev changefeed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) published() []changefeed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]changefeed.Event, len(p.events))
	copy(out, p.events)
	return out
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	projects      domain.ProjectRepository
	tasks         domain.TaskRepository
	events        domain.EventRepository
	logs          domain.LogRepository
	announcements domain.AnnouncementRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) Projects() domain.ProjectRepository           { return m.projects }
func (m *mockDataStore) Tasks() domain.TaskRepository                 { return m.tasks }
func (m *mockDataStore) Events() domain.EventRepository               { return m.events }
func (m *mockDataStore) Logs() domain.LogRepository                   { return m.logs }
func (m *mockDataStore) Announcements() domain.AnnouncementRepository { return m.announcements }

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc        func(ctx context.Context, u *domain.User) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	updateFunc        func(ctx context.Context, u *domain.User) error
	listFunc          func(ctx context.Context) ([]*domain.User, error)
	deleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getByUsernameFunc(ctx, username)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock ProjectRepository
// ---------------------------------------------------------------------------

type mockProjectRepo struct {
	createFunc          func(ctx context.Context, p *domain.Project) error
	getByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	updateFunc          func(ctx context.Context, p *domain.Project) error
	listFunc            func(ctx context.Context) ([]*domain.Project, error)
	listByMemberFunc    func(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	deleteFunc          func(ctx context.Context, id uuid.UUID) error
	listMembersFunc     func(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error)
	listMemberStatsFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.MemberStats, error)
	replaceMembersFunc  func(ctx context.Context, projectID uuid.UUID, members []*domain.Member) error
	isMemberFunc        func(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return m.createFunc(ctx, p)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	return m.updateFunc(ctx, p)
}

func (m *mockProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	return m.listFunc(ctx)
}

func (m *mockProjectRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return m.listByMemberFunc(ctx, userID)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockProjectRepo) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error) {
	return m.listMembersFunc(ctx, projectID)
}

func (m *mockProjectRepo) ListMemberStats(ctx context.Context, projectID uuid.UUID) ([]*domain.MemberStats, error) {
	return m.listMemberStatsFunc(ctx, projectID)
}

func (m *mockProjectRepo) ReplaceMembers(ctx context.Context, projectID uuid.UUID, members []*domain.Member) error {
	return m.replaceMembersFunc(ctx, projectID, members)
}

func (m *mockProjectRepo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return m.isMemberFunc(ctx, projectID, userID)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	createFunc         func(ctx context.Context, t *domain.Task) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	listByProjectFunc  func(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	listByAssigneeFunc func(ctx context.Context, projectID, userID uuid.UUID) ([]*domain.Task, error)
	updateStatusFunc   func(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error
	updateFunc         func(ctx context.Context, t *domain.Task) error
	deleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return m.createFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return m.listByProjectFunc(ctx, projectID)
}

func (m *mockTaskRepo) ListByAssignee(ctx context.Context, projectID, userID uuid.UUID) ([]*domain.Task, error) {
	return m.listByAssigneeFunc(ctx, projectID, userID)
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	return m.updateStatusFunc(ctx, id, status)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock EventRepository
// ---------------------------------------------------------------------------

type mockEventRepo struct {
	createFunc        func(ctx context.Context, e *domain.TimelineEvent) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.TimelineEvent, error)
	listByProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.TimelineEvent, error)
	updateFunc        func(ctx context.Context, e *domain.TimelineEvent) error
	deleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockEventRepo) Create(ctx context.Context, e *domain.TimelineEvent) error {
	return m.createFunc(ctx, e)
}

func (m *mockEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimelineEvent, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockEventRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.TimelineEvent, error) {
	return m.listByProjectFunc(ctx, projectID)
}

func (m *mockEventRepo) Update(ctx context.Context, e *domain.TimelineEvent) error {
	return m.updateFunc(ctx, e)
}

func (m *mockEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock LogRepository
// ---------------------------------------------------------------------------

type mockLogRepo struct {
	createFunc        func(ctx context.Context, l *domain.Log) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Log, error)
	listByProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.Log, error)
	updateFunc        func(ctx context.Context, l *domain.Log) error
	deleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockLogRepo) Create(ctx context.Context, l *domain.Log) error {
	return m.createFunc(ctx, l)
}

func (m *mockLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Log, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockLogRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Log, error) {
	return m.listByProjectFunc(ctx, projectID)
}

func (m *mockLogRepo) Update(ctx context.Context, l *domain.Log) error {
	return m.updateFunc(ctx, l)
}

func (m *mockLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock AnnouncementRepository
// ---------------------------------------------------------------------------

type mockAnnouncementRepo struct {
	createFunc func(ctx context.Context, a *domain.Announcement) error
	listFunc   func(ctx context.Context) ([]*domain.Announcement, error)
	deleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, a *domain.Announcement) error {
	return m.createFunc(ctx, a)
}

func (m *mockAnnouncementRepo) List(ctx context.Context) ([]*domain.Announcement, error) {
	return m.listFunc(ctx)
}

func (m *mockAnnouncementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}
