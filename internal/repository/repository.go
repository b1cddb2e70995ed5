package repository

import (
	"github.com/taskboard-dev/taskboard/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// CreateWithOwner creates a project and its owner membership in a single transaction
	CreateWithOwner(project *models.Project, member *models.ProjectMember) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByIDs finds all projects whose ID is in the given set
	FindByIDs(ids []uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// ListMembershipsByUserID lists all memberships a user holds
	ListMembershipsByUserID(userID uint64) ([]models.ProjectMember, error)

	// ListManagedProjectIDs lists the IDs of projects where the user is owner or admin
	ListManagedProjectIDs(userID uint64) ([]uint64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  *uint64
	AssigneeID *uint64
	// ProjectIDs restricts results to the given projects when non-nil.
	// A non-nil empty slice matches nothing.
	ProjectIDs []uint64
	Status     *models.TaskStatus
	Page       int
	PageSize   int
}
