package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/api/session"
	"github.com/reingma/newsletter/internal/core/ports"
)

const (
	sessionKey = "session_manager"
	userIDKey  = "authenticated_user_id"
)

// LoadSession resolves the request's session against the store and makes
// the manager available to downstream handlers. A store failure is a 500,
// never an anonymous session.
func LoadSession(store ports.SessionStore, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, err := session.Load(c, store, ttl)
			if err != nil {
				return err
			}
			c.Set(sessionKey, m)
			return next(c)
		}
	}
}

// RequireAuth gates admin routes: anonymous sessions are redirected to the
// login form; authenticated ones get their principal id attached for the
// handler to pick up via handler accessors.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, ok := c.Get(sessionKey).(*session.Manager)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
			}
			userID, authenticated := m.UserID()
			if !authenticated {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// SessionFromContext returns the request's session manager. It is only
// absent when LoadSession is not installed on the route.
func SessionFromContext(c echo.Context) (*session.Manager, bool) {
	m, ok := c.Get(sessionKey).(*session.Manager)
	return m, ok
}

// UserIDFromContext returns the authenticated principal attached by
// RequireAuth.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDKey).(uuid.UUID)
	return id, ok
}
