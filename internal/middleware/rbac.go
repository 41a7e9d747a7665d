package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/response"
)

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		claims, ok := value.(*models.JWTClaims)
		if !exists || !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, forbidden(roles))
			return
		}
		c.Next()
	}
}

func forbidden(roles []models.UserRole) error {
	if len(roles) == 1 {
		switch roles[0] {
		case models.RoleTeacher:
			return appErrors.ErrTeacherOnly
		case models.RoleStudent:
			return appErrors.ErrStudentOnly
		}
	}
	return appErrors.ErrForbidden
}
