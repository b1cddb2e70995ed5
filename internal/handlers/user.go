package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/dto"
	apierrors "github.com/taskboard-dev/taskboard/internal/errors"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

// UserHandler coordinates user lookup HTTP handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// SearchByEmail finds a user by exact email match.
func (h *UserHandler) SearchByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		apierrors.BadRequest(c, "email query parameter is required")
		return
	}

	user, err := h.userService.SearchByEmail(email)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// GetUser returns a user's profile, scoped by shared-project administration.
func (h *UserHandler) GetUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	caller, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.userService.GetUser(targetID, caller.ID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// GetUserProjects lists a user's projects, scoped for cross-user access.
func (h *UserHandler) GetUserProjects(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	caller, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, err := h.userService.GetUserProjects(targetID, caller.ID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectDTOs(projects),
	})
}

// GetUserTasks lists tasks assigned to a user, scoped for cross-user access.
func (h *UserHandler) GetUserTasks(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	caller, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.userService.GetUserTasks(services.GetUserTasksInput{
		TargetID: targetID,
		CallerID: caller.ID,
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserViewDenied):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
