package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/constants"
	"github.com/taskboard-dev/taskboard/internal/database"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"github.com/taskboard-dev/taskboard/internal/services"
)

type testEnv struct {
	db             *gorm.DB
	authService    *services.AuthService
	projectService *services.ProjectService
	taskService    *services.TaskService
	userService    *services.UserService
	authHandler    *AuthHandler
	projectHandler *ProjectHandler
	taskHandler    *TaskHandler
	userHandler    *UserHandler
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.Init("test-secret", time.Hour))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo)
	userService := services.NewUserService(userRepo, projectRepo, taskRepo)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return testEnv{
		db:             db,
		authService:    authService,
		projectService: projectService,
		taskService:    taskService,
		userService:    userService,
		authHandler:    NewAuthHandler(authService),
		projectHandler: NewProjectHandler(projectService, taskService),
		taskHandler:    NewTaskHandler(taskService),
		userHandler:    NewUserHandler(userService),
	}
}

// authAs stands in for RequireAuth in route-level tests.
func authAs(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUser, *user)
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, env testEnv, name string, ownerID uint64) *models.Project {
	t.Helper()

	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      name,
		CreatorID: ownerID,
	})
	require.NoError(t, err)
	return project
}

func addTestMember(t *testing.T, db *gorm.DB, projectID, userID uint64, role models.ProjectRole) {
	t.Helper()

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	require.NoError(t, db.Create(member).Error)
}

func doRequest(r *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if user != nil {
		c.Set(constants.ContextKeyUser, *user)
	}

	return c, w
}
