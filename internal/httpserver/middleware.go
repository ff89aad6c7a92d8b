package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Headers attaches the permissive cross-origin headers and disables
// response caching on every route, and short-circuits pre-flight
// OPTIONS requests with an empty 204.
func Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
