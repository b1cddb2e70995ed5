package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"gorm.io/gorm"
)

var ErrUserViewDenied = errors.New("not authorized to view this user")

// UserService handles user lookups and the cross-user visibility policy:
// another user's record, projects, and tasks are visible only through
// projects the caller administers.
type UserService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	policy      membershipPolicy
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		policy:      membershipPolicy{projectRepo: projectRepo},
	}
}

// GetUser returns a user's profile. Viewing someone else requires the caller
// to hold owner or admin in at least one project the target is a member of.
func (s *UserService) GetUser(targetID, callerID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if targetID != callerID {
		shared, err := s.policy.sharedManagedProjectIDs(callerID, targetID)
		if err != nil {
			return nil, err
		}
		if len(shared) == 0 {
			return nil, ErrUserViewDenied
		}
	}

	return user, nil
}

// SearchByEmail finds a user by exact email match.
func (s *UserService) SearchByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GetUserProjects lists a user's projects. Callers see all of their own
// projects; someone else's list is limited to projects the caller manages.
func (s *UserService) GetUserProjects(targetID, callerID uint64) ([]models.Project, error) {
	if targetID == callerID {
		memberships, err := s.projectRepo.ListMembershipsByUserID(targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to list memberships: %w", err)
		}

		projects := make([]models.Project, 0, len(memberships))
		for _, m := range memberships {
			projects = append(projects, m.Project)
		}
		return projects, nil
	}

	shared, err := s.policy.sharedManagedProjectIDs(callerID, targetID)
	if err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.FindByIDs(shared)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// GetUserTasksInput holds parameters for listing a user's assigned tasks.
type GetUserTasksInput struct {
	TargetID uint64
	CallerID uint64
	Page     int
	PageSize int
}

// GetUserTasks lists tasks assigned to a user, with the same scoping as
// GetUserProjects for cross-user access.
func (s *UserService) GetUserTasks(input GetUserTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		AssigneeID: &input.TargetID,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}

	if input.TargetID != input.CallerID {
		shared, err := s.policy.sharedManagedProjectIDs(input.CallerID, input.TargetID)
		if err != nil {
			return nil, 0, err
		}
		filter.ProjectIDs = shared
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}
