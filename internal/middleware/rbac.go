package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/models"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/response"
)

// RequireRoles lets a request through only when the authenticated user holds
// one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
