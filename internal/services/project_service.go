package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrInvalidProjectName    = errors.New("project name cannot be empty")
	ErrInvalidMemberRole     = errors.New("role must be member or admin")
	ErrAlreadyProjectMember  = errors.New("user is already a member of this project")
	ErrProjectMemberNotFound = errors.New("project member not found")
	ErrCannotRemoveYourself  = errors.New("you cannot remove yourself from the project")
)

// ProjectService provides business logic for project and membership operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	policy      membershipPolicy
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		policy:      membershipPolicy{projectRepo: projectRepo},
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	CreatorID   uint64
}

// CreateProject creates a project and makes the creator its owner in a
// single transaction.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidProjectName
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		CreatorID:   input.CreatorID,
	}

	member := &models.ProjectMember{
		UserID:   input.CreatorID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.projectRepo.CreateWithOwner(project, member); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// GetProject returns a project if the caller is a member.
func (s *ProjectService) GetProject(projectID, callerID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if _, err := s.policy.requireMember(projectID, callerID); err != nil {
		return nil, err
	}

	return project, nil
}

// UpdateProjectInput holds the updatable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// UpdateProject applies a partial update. The caller must be owner or admin.
func (s *ProjectService) UpdateProject(projectID, callerID uint64, input UpdateProjectInput) (*models.Project, error) {
	if _, err := s.policy.requireManager(projectID, callerID); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidProjectName
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// ListMembers returns all members of a project. The caller must be a member.
func (s *ProjectService) ListMembers(projectID, callerID uint64) ([]models.ProjectMember, error) {
	if _, err := s.policy.requireMember(projectID, callerID); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return members, nil
}

// AddMemberInput represents parameters to add a member to a project.
type AddMemberInput struct {
	ProjectID uint64
	ActorID   uint64
	UserID    uint64
	Role      models.ProjectRole
}

// AddMember adds a user to a project. The actor must be owner or admin, the
// target must exist and must not already be a member. The membership table's
// composite key backstops the duplicate check under concurrency.
func (s *ProjectService) AddMember(input AddMemberInput) (*models.ProjectMember, error) {
	if _, err := s.policy.requireManager(input.ProjectID, input.ActorID); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleMember && role != models.RoleAdmin {
		return nil, ErrInvalidMemberRole
	}

	target, err := s.userRepo.FindByID(input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.projectRepo.FindMember(input.ProjectID, input.UserID); err == nil {
		return nil, ErrAlreadyProjectMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Role:      role,
		JoinedAt:  time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to project: %w", err)
	}

	member.User = *target
	return member, nil
}

// RemoveMember removes a member from the project. The actor must be owner or
// admin and may not remove themselves.
func (s *ProjectService) RemoveMember(projectID, actorID, targetID uint64) error {
	if _, err := s.policy.requireManager(projectID, actorID); err != nil {
		return err
	}

	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.projectRepo.FindMember(projectID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find project member: %w", err)
	}

	if err := s.projectRepo.RemoveMember(projectID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
