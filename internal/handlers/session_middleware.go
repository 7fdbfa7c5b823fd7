package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okfngroup/audit-intake/internal/session"
)

const sessionCookie = "audit_session_id"

// sessionKey is the gin context key the middleware stores the session under.
const sessionKey = "session"

// SessionMiddleware resolves the browser session from its cookie,
// advances the inactivity clock, and exposes the Session value to
// handlers. First contact mints the cookie.
func SessionMiddleware(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(sessionCookie)
		s := manager.Touch(cookie, time.Now())
		if cookie != s.SessionID {
			// 30-day cookie; the inactivity window governs the working
			// state, not the cookie itself.
			c.SetCookie(sessionCookie, s.SessionID, 30*24*3600, "/", "", false, true)
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// currentSession returns the Session value the middleware attached.
func currentSession(c *gin.Context) session.Session {
	value, _ := c.Get(sessionKey)
	s, _ := value.(session.Session)
	return s
}
