package middlewares

import (
	"net/http"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)

		if !ok {
			AbortUnauthorized(c)
			return
		}

		if err := auth.AuthorizeRole(p, required); err != nil {
			m.prom.Forbidden(c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Not enough permissions",
				},
			})
			return
		}
		c.Next()
	}
}
