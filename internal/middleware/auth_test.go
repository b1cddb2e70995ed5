package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/database"
	"github.com/taskboard-dev/taskboard/internal/models"
)

func setupAuthTest(t *testing.T) *gorm.DB {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.Init("test-secret", time.Hour))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func authTestRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", RequireAuth(), func(c *gin.Context) {
		user, _ := GetCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	setupAuthTest(t)

	w := doAuthRequest(authTestRouter(), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	setupAuthTest(t)

	w := doAuthRequest(authTestRouter(), "Basic abc123")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	setupAuthTest(t)

	w := doAuthRequest(authTestRouter(), "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	db := setupAuthTest(t)

	user := models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hashed"}
	require.NoError(t, db.Create(&user).Error)

	token, err := auth.GenerateToken(user.Email)
	require.NoError(t, err)

	w := doAuthRequest(authTestRouter(), "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), user.Email)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	db := setupAuthTest(t)

	user := models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hashed"}
	require.NoError(t, db.Create(&user).Error)

	token, err := auth.GenerateToken(user.Email)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&user).Error)

	// A syntactically valid token whose subject no longer resolves is rejected.
	w := doAuthRequest(authTestRouter(), "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
