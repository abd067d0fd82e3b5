// Package access holds the single authority boundary for the tracker: which
// rows a requester may read and which mutations they may perform. Handlers
// call these predicates instead of re-deriving role rules per endpoint, and
// they are always applied server-side — a client is never trusted to
// withhold data it already received.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/domain"
)

// Account roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Identity is the requester as supplied by the identity provider. The core
// trusts these values as-is.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// CanSeeTask reports whether the requester may read a task: admins see every
// task, members only their own assignments.
func CanSeeTask(requester Identity, t *domain.Task) bool {
	if requester.IsAdmin() {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == requester.UserID
}

// VisibleTasks filters a task collection down to what the requester may see.
func VisibleTasks(requester Identity, tasks []*domain.Task) []*domain.Task {
	if requester.IsAdmin() {
		return tasks
	}
	visible := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if CanSeeTask(requester, t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// ListVisibleTasks is the read path for task collections: admins get the full
// project set from the repository, members only rows assigned to them. The
// scoping happens in the query, not after the fact.
func ListVisibleTasks(ctx context.Context, repo domain.TaskRepository, requester Identity, projectID uuid.UUID) ([]*domain.Task, error) {
	if requester.IsAdmin() {
		return repo.ListByProject(ctx, projectID)
	}
	return repo.ListByAssignee(ctx, projectID, requester.UserID)
}

// CanManageProjects: project create/update, membership, and account
// administration are admin-only.
func CanManageProjects(requester Identity) bool { return requester.IsAdmin() }

// CanEditSchedule: timeline event create/update/delete/reschedule is
// admin-only, matching the roadmap's edit affordances.
func CanEditSchedule(requester Identity) bool { return requester.IsAdmin() }

// CanManageTasks: task create/delete is admin-only.
func CanManageTasks(requester Identity) bool { return requester.IsAdmin() }

// CanUpdateTaskStatus: admins may move any task; a member may move a task
// assigned to them. Status transitions themselves are unrestricted.
func CanUpdateTaskStatus(requester Identity, t *domain.Task) bool {
	if requester.IsAdmin() {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == requester.UserID
}

// CanEditLog: a log entry may be edited or deleted by its author or an admin.
func CanEditLog(requester Identity, l *domain.Log) bool {
	return requester.IsAdmin() || l.CreatedBy == requester.UserID
}

// CanManageAnnouncements: posting and removing announcements is admin-only.
func CanManageAnnouncements(requester Identity) bool { return requester.IsAdmin() }
