package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/dto"
	apierrors "github.com/taskboard-dev/taskboard/internal/errors"
	"github.com/taskboard-dev/taskboard/internal/services"
)

func signupRouter(env testEnv) *gin.Engine {
	r := gin.New()
	r.POST("/signup", env.authHandler.Signup)
	r.POST("/login", env.authHandler.Login)
	return r
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupTestEnv(t)
	r := signupRouter(env)

	body, err := json.Marshal(map[string]string{
		"name":     "Alice Smith",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, "/signup", body)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "alice@example.com", response.Email)
	require.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	r := signupRouter(env)

	body, err := json.Marshal(map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Signup_ShortPassword(t *testing.T) {
	env := setupTestEnv(t)
	r := signupRouter(env)

	body, err := json.Marshal(map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "short",
	})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_RoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	r := signupRouter(env)

	_, err := env.authService.Signup(services.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"username": "alice@example.com",
		"password": "password123",
	})
	require.NoError(t, err)

	w := doRequest(r, http.MethodPost, "/login", body)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "bearer", response.TokenType)
	require.NotEmpty(t, response.AccessToken)
	require.Equal(t, "alice@example.com", response.User.Email)

	// The resolved principal's email matches the signup email exactly.
	subject, err := auth.VerifyToken(response.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", subject)
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	env := setupTestEnv(t)
	r := signupRouter(env)

	_, err := env.authService.Signup(services.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	wrongPassword, err := json.Marshal(map[string]string{
		"username": "alice@example.com",
		"password": "wrongpassword",
	})
	require.NoError(t, err)

	unknownEmail, err := json.Marshal(map[string]string{
		"username": "nobody@example.com",
		"password": "password123",
	})
	require.NoError(t, err)

	w1 := doRequest(r, http.MethodPost, "/login", wrongPassword)
	require.Equal(t, http.StatusUnauthorized, w1.Code)

	w2 := doRequest(r, http.MethodPost, "/login", unknownEmail)
	require.Equal(t, http.StatusUnauthorized, w2.Code)

	// The response must not reveal whether the email exists.
	var e1, e2 apierrors.APIError
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &e1))
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &e2))
	require.Equal(t, e1.Message, e2.Message)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.authService.Signup(services.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	c, w := testContext(http.MethodGet, "/users/me", nil, user)

	env.authHandler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Email, response.Email)
}
