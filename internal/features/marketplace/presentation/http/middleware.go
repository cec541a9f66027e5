package http

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const tokenKey = "bearer_token"

// BearerToken copies the Authorization bearer token into the gin context
// so handlers can forward it upstream unchanged.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			c.Set(tokenKey, strings.TrimSpace(header[7:]))
		}
		c.Next()
	}
}

// Token returns the caller's bearer token, or "" when none was sent.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
