package v1

import (
	"github.com/apexhq/trackline/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Projects() domain.ProjectRepository
	Tasks() domain.TaskRepository
	Events() domain.EventRepository
	Logs() domain.LogRepository
	Announcements() domain.AnnouncementRepository
}
