package httpctx

import "github.com/gin-gonic/gin"

// CurrentUserID retrieves the authenticated player ID from Gin context if present.
func CurrentUserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	uid, ok := val.(uint)
	return uid, ok
}
