package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/dto"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// projectRouter wires the project routes with the real middleware chain,
// authenticating every request as the given user.
func projectRouter(env testEnv, user *models.User) *gin.Engine {
	r := gin.New()
	projects := r.Group("/projects", authAs(user))
	{
		projects.POST("", env.projectHandler.CreateProject)
		projects.GET("/:id", middleware.RequireProjectAccess(), env.projectHandler.GetProject)
		projects.PUT("/:id/update", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), env.projectHandler.UpdateProject)
		projects.GET("/:id/members", middleware.RequireProjectAccess(), env.projectHandler.ListMembers)
		projects.POST("/:id/members", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), env.projectHandler.AddMember)
		projects.DELETE("/:id/members/:userId", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), env.projectHandler.RemoveMember)
		projects.GET("/:id/tasks", middleware.RequireProjectAccess(), env.projectHandler.ListTasks)
	}
	return r
}

func TestProjectHandler_CreateProject(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	r := projectRouter(env, alice)

	body, err := json.Marshal(map[string]string{
		"name":        "Website Redesign",
		"description": "Revamp the company website",
	})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, "/projects", body)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Website Redesign", response.Name)
	require.Equal(t, alice.ID, response.CreatorID)

	// The creator is the only member and holds the owner role.
	var members []models.ProjectMember
	require.NoError(t, env.db.Where("project_id = ?", response.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.Equal(t, alice.ID, members[0].UserID)
	require.Equal(t, models.RoleOwner, members[0].Role)
}

func TestProjectHandler_GetProject_NonMemberForbidden(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	mallory := createTestUser(t, env.db, "Mallory", "mallory@example.com")
	project := createTestProject(t, env, "P1", alice.ID)

	w := doRequest(projectRouter(env, mallory), http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(projectRouter(env, alice), http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail dto.ProjectDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, models.RoleOwner, detail.YourRole)
}

func TestProjectHandler_GetProject_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")

	w := doRequest(projectRouter(env, alice), http.MethodGet, "/projects/9999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_UpdateProject_RequiresManager(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	bob := createTestUser(t, env.db, "Bob", "bob@example.com")
	project := createTestProject(t, env, "P1", alice.ID)
	addTestMember(t, env.db, project.ID, bob.ID, models.RoleMember)

	body, err := json.Marshal(map[string]string{"name": "Renamed"})
	require.NoError(t, err)

	w := doRequest(projectRouter(env, bob), http.MethodPut, fmt.Sprintf("/projects/%d/update", project.ID), body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(projectRouter(env, alice), http.MethodPut, fmt.Sprintf("/projects/%d/update", project.ID), body)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Renamed", response.Name)
}

func TestProjectHandler_AddMember(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	bob := createTestUser(t, env.db, "Bob", "bob@example.com")
	project := createTestProject(t, env, "P1", alice.ID)
	r := projectRouter(env, alice)

	body, err := json.Marshal(map[string]interface{}{"user_id": bob.ID})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, fmt.Sprintf("/projects/%d/members", project.ID), body)
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.ProjectMemberDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, bob.ID, response.User.ID)
	require.Equal(t, models.RoleMember, response.Role)

	// Adding the same pair twice conflicts.
	w = doRequest(r, http.MethodPost, fmt.Sprintf("/projects/%d/members", project.ID), body)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestProjectHandler_AddMember_UnknownUser(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	project := createTestProject(t, env, "P1", alice.ID)

	body, err := json.Marshal(map[string]interface{}{"user_id": 9999})
	require.NoError(t, err)

	w := doRequest(projectRouter(env, alice), http.MethodPost, fmt.Sprintf("/projects/%d/members", project.ID), body)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_AddMember_MemberForbidden(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	bob := createTestUser(t, env.db, "Bob", "bob@example.com")
	carol := createTestUser(t, env.db, "Carol", "carol@example.com")
	project := createTestProject(t, env, "P1", alice.ID)
	addTestMember(t, env.db, project.ID, bob.ID, models.RoleMember)

	body, err := json.Marshal(map[string]interface{}{"user_id": carol.ID})
	require.NoError(t, err)

	w := doRequest(projectRouter(env, bob), http.MethodPost, fmt.Sprintf("/projects/%d/members", project.ID), body)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_RemoveMember(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	bob := createTestUser(t, env.db, "Bob", "bob@example.com")
	project := createTestProject(t, env, "P1", alice.ID)
	addTestMember(t, env.db, project.ID, bob.ID, models.RoleMember)
	r := projectRouter(env, alice)

	// Self-removal is rejected regardless of role.
	w := doRequest(r, http.MethodDelete, fmt.Sprintf("/projects/%d/members/%d", project.ID, alice.ID), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/projects/%d/members/%d", project.ID, bob.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, bob.ID).
		Count(&count).Error)
	require.Zero(t, count)
}

func TestProjectHandler_ListMembers(t *testing.T) {
	env := setupTestEnv(t)
	alice := createTestUser(t, env.db, "Alice", "alice@example.com")
	bob := createTestUser(t, env.db, "Bob", "bob@example.com")
	project := createTestProject(t, env, "P1", alice.ID)
	addTestMember(t, env.db, project.ID, bob.ID, models.RoleMember)

	w := doRequest(projectRouter(env, bob), http.MethodGet, fmt.Sprintf("/projects/%d/members", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.ProjectMemberDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response["members"], 2)
}
