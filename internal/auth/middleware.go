package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionKey = "runnerSession"

// Middleware validates the Bearer JWT and injects the runner Session into the
// gin context. Requests without a valid runner token are rejected.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required (Bearer <token>)"})
			return
		}
		sess, err := ParseBearer(header, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom extracts the runner session injected by Middleware.
func SessionFrom(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}
