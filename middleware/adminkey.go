package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminKey guards operator endpoints with a shared key in X-Admin-Key.
// When no key is configured the guard is disabled, which suits local use;
// webhook and health routes are never behind it.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		provided := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or missing admin key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
