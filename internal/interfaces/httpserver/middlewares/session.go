package middlewares

import (
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie  = "assistant_session"
	userContextKey = "session_user_id"
)

// Session assigns an anonymous session cookie on first contact. The user
// identity for all conversation scoping is the session id, falling back to
// the client IP when cookies are unavailable.
func Session(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(sessionCookie, sessionID, int(timeout.Seconds()), "/", "", false, true)
		}
		c.Set(userContextKey, sessionID)
		c.Next()
	}
}

// UserIDFromContext returns the caller identity: session cookie first, then
// normalized client IP.
func UserIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(userContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}
	return normalizeIP(c.ClientIP())
}

// ClearSession expires the session cookie.
func ClearSession(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// Normalize IPv6-mapped IPv4 etc.
func normalizeIP(raw string) string {
	if raw == "" {
		return "anonymous"
	}
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
