package services

import (
	"errors"
	"fmt"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotProjectMember  = errors.New("you are not a member of this project")
	ErrNotProjectManager = errors.New("only project owners and admins can perform this action")
)

// membershipPolicy answers project-scoped authorization questions. Every
// decision reduces to membership lookups against the project repository.
type membershipPolicy struct {
	projectRepo repository.ProjectRepository
}

// requireMember returns the caller's membership in the project, or
// ErrNotProjectMember if there is none.
func (p membershipPolicy) requireMember(projectID, userID uint64) (*models.ProjectMember, error) {
	member, err := p.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectMember
		}
		return nil, fmt.Errorf("failed to verify project membership: %w", err)
	}
	return member, nil
}

// requireManager returns the caller's membership if their role is owner or
// admin. Non-members and plain members both get a permission error.
func (p membershipPolicy) requireManager(projectID, userID uint64) (*models.ProjectMember, error) {
	member, err := p.requireMember(projectID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		return nil, ErrNotProjectManager
	}
	return member, nil
}

// managedProjectIDs returns the projects where the user holds owner or admin.
func (p membershipPolicy) managedProjectIDs(userID uint64) ([]uint64, error) {
	ids, err := p.projectRepo.ListManagedProjectIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed projects: %w", err)
	}
	return ids, nil
}

// sharedManagedProjectIDs returns the intersection of the target's projects
// and the caller's owner/admin projects. Cross-user visibility is scoped to
// this set: two independent membership queries intersected here rather than
// a store-specific join.
func (p membershipPolicy) sharedManagedProjectIDs(callerID, targetID uint64) ([]uint64, error) {
	managed, err := p.managedProjectIDs(callerID)
	if err != nil {
		return nil, err
	}
	if len(managed) == 0 {
		return []uint64{}, nil
	}

	memberships, err := p.projectRepo.ListMembershipsByUserID(targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	managedSet := make(map[uint64]struct{}, len(managed))
	for _, id := range managed {
		managedSet[id] = struct{}{}
	}

	shared := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		if _, ok := managedSet[m.ProjectID]; ok {
			shared = append(shared, m.ProjectID)
		}
	}

	return shared, nil
}
