package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/constants"
	"github.com/taskboard-dev/taskboard/internal/database"
	apierrors "github.com/taskboard-dev/taskboard/internal/errors"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// RequireAuth resolves the bearer token to a principal on every call. The
// token's subject must still map to an existing user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apierrors.Unauthorized(c, "Authorization token is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			apierrors.Unauthorized(c, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		email, err := auth.VerifyToken(parts[1])
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().Where("email = ?", email).First(&user).Error; err != nil {
			apierrors.Unauthorized(c, "User not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetCurrentUser retrieves the authenticated user from context.
func GetCurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}
