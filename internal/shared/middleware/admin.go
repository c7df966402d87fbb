package middleware

import (
	"github.com/gin-gonic/gin"

	"nutrifarm-backend/internal/shared/response"
	"nutrifarm-backend/pkg/jwt"
)

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetString("role"); role != jwt.RoleAdmin {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
