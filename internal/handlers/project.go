package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/dto"
	apierrors "github.com/taskboard-dev/taskboard/internal/errors"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

// ProjectHandler coordinates project and membership HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// CreateProject creates a project; the creator becomes its owner.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   user.ID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// GetProject returns project details. Access is checked by
// RequireProjectAccess.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	member, _ := middleware.GetProjectMember(c)

	c.JSON(http.StatusOK, dto.ProjectDetailDTO{
		ProjectDTO: dto.ToProjectDTO(project),
		YourRole:   member.Role,
	})
}

// UpdateProject applies a partial update. Role is checked by
// RequireProjectManager.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	user, _ := middleware.GetCurrentUser(c)

	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.projectService.UpdateProject(project.ID, user.ID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*updated))
}

// ListMembers returns all members of the project.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	user, _ := middleware.GetCurrentUser(c)

	members, err := h.projectService.ListMembers(project.ID, user.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToProjectMemberDTOs(members),
	})
}

// AddMember adds a user to the project.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	user, _ := middleware.GetCurrentUser(c)

	type AddMemberRequest struct {
		UserID uint64             `json:"user_id" binding:"required"`
		Role   models.ProjectRole `json:"role"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.AddMember(services.AddMemberInput{
		ProjectID: project.ID,
		ActorID:   user.ID,
		UserID:    req.UserID,
		Role:      req.Role,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectMemberDTO(*member))
}

// RemoveMember removes a member from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	user, _ := middleware.GetCurrentUser(c)

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.projectService.RemoveMember(project.ID, user.ID, targetID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// ListTasks returns the project's tasks, paginated and optionally filtered
// by status.
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		ProjectID: project.ID,
		Page:      params.Page,
		PageSize:  params.Limit,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid task status")
			return
		}
		input.Status = &status
	}

	tasks, total, err := h.taskService.ListProjectTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidMemberRole),
		errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotProjectMember),
		errors.Is(err, services.ErrNotProjectManager):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrProjectMemberNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyProjectMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
