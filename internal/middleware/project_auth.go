package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/constants"
	"github.com/taskboard-dev/taskboard/internal/database"
	apierrors "github.com/taskboard-dev/taskboard/internal/errors"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// RequireProjectAccess checks that the caller is a member of the project in
// the :id parameter and stashes the project and membership in context.
func RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().First(&project, projectID).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		var member models.ProjectMember
		if err := database.GetDB().
			Where("project_id = ? AND user_id = ?", projectID, user.ID).
			First(&member).Error; err != nil {
			apierrors.Forbidden(c, "You are not a member of this project")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Set(constants.ContextKeyProjectMember, member)
		c.Next()
	}
}

// RequireProjectManager checks that the membership loaded by
// RequireProjectAccess carries the owner or admin role.
func RequireProjectManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, exists := GetProjectMember(c)
		if !exists {
			apierrors.Forbidden(c, "Project access required")
			c.Abort()
			return
		}

		if !member.Role.CanManage() {
			apierrors.Forbidden(c, "Only project owners and admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetProject retrieves the project loaded by RequireProjectAccess.
func GetProject(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}

	project, ok := value.(models.Project)
	return project, ok
}

// GetProjectMember retrieves the membership loaded by RequireProjectAccess.
func GetProjectMember(c *gin.Context) (models.ProjectMember, bool) {
	value, exists := c.Get(constants.ContextKeyProjectMember)
	if !exists {
		return models.ProjectMember{}, false
	}

	member, ok := value.(models.ProjectMember)
	return member, ok
}
