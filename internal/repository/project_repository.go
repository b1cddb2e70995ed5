package repository

import (
	"errors"
	"fmt"

	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateProject is returned when creating the project fails inside the create transaction.
	ErrCreateProject = errors.New("project repository: create project failed")
	// ErrCreateOwnerMembership is returned when creating the owner membership fails inside the create transaction.
	ErrCreateOwnerMembership = errors.New("project repository: create owner membership failed")
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithOwner creates a project and its owner membership atomically.
func (r *GormProjectRepository) CreateWithOwner(project *models.Project, member *models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProject, err)
		}

		member.ProjectID = project.ID

		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOwnerMembership, err)
		}

		return nil
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDs finds all projects whose ID is in the given set
func (r *GormProjectRepository) FindByIDs(ids []uint64) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	var projects []models.Project
	if err := r.db.Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUserID lists all memberships a user holds
func (r *GormProjectRepository) ListMembershipsByUserID(userID uint64) ([]models.ProjectMember, error) {
	var memberships []models.ProjectMember
	if err := r.db.Preload("Project").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListManagedProjectIDs lists the IDs of projects where the user is owner or admin
func (r *GormProjectRepository) ListManagedProjectIDs(userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.ProjectMember{}).
		Where("user_id = ? AND role IN ?", userID, []models.ProjectRole{models.RoleOwner, models.RoleAdmin}).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
