package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careerflow/internal/auth"
	"careerflow/internal/session"
)

const sessionContextKey = "currentSession"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// SessionMiddleware validates the bearer session token and loads the live
// session into the request context. A token whose session no longer exists
// (logout, TTL, expiry downgrade) is treated as unauthorized.
func SessionMiddleware(authService *auth.AuthService, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c)
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the session loaded by SessionMiddleware.
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	return sess, ok
}

// SetSessionInContext exists for handler tests that bypass the middleware.
func SetSessionInContext(c *gin.Context, sess *session.Session) {
	c.Set(sessionContextKey, sess)
}
