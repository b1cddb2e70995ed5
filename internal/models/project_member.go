package models

import "time"

type ProjectRole string

const (
	RoleOwner  ProjectRole = "owner"
	RoleAdmin  ProjectRole = "admin"
	RoleMember ProjectRole = "member"
)

// CanManage reports whether the role may administer the project
// (update it, manage members, mutate its tasks).
func (r ProjectRole) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// ProjectMember links a user to a project with a role. The composite
// primary key is the uniqueness backstop for concurrent add-member calls.
type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
