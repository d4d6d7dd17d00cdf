// Package session implements server-side sessions over a ports.SessionStore.
// The session id travels in a cookie; everything else lives in the store.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/core/ports"
)

// CookieName carries the opaque session identifier.
const CookieName = "session_id"

const userIDKey = "user_id"

// Manager is the per-request session handle. State machine:
// Anonymous -> Authenticated (via Establish, which rotates the id) ->
// Destroyed. A rotated or destroyed id never resolves to a payload again.
type Manager struct {
	c       echo.Context
	store   ports.SessionStore
	ttl     time.Duration
	id      string
	payload map[string]string
}

// Load resolves the request's session cookie against the store. A missing
// or unknown cookie yields a fresh anonymous session. Store failures
// propagate: they must not be mistaken for "not logged in".
func Load(c echo.Context, store ports.SessionStore, ttl time.Duration) (*Manager, error) {
	m := &Manager{c: c, store: store, ttl: ttl, payload: make(map[string]string)}

	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		m.issueID()
		return m, nil
	}

	payload, found, err := store.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		m.issueID()
		return m, nil
	}

	m.id = cookie.Value
	m.payload = payload
	return m, nil
}

// UserID returns the authenticated principal, if any.
func (m *Manager) UserID() (uuid.UUID, bool) {
	raw, ok := m.payload[userIDKey]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Establish rotates the session identifier and only then associates the
// principal with the new session. The rotate-first ordering is the
// session-fixation defense: an identifier observed before login never
// becomes an authenticated session.
func (m *Manager) Establish(ctx context.Context, userID uuid.UUID) error {
	oldID := m.id
	m.issueID()

	if err := m.store.Delete(ctx, oldID); err != nil {
		return fmt.Errorf("discard pre-login session: %w", err)
	}

	m.payload[userIDKey] = userID.String()
	if err := m.store.Set(ctx, m.id, m.payload, m.ttl); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	m.writeCookie(m.id, m.ttl)
	return nil
}

// Destroy removes the session entirely; the old identifier resolves to
// Anonymous from now on.
func (m *Manager) Destroy(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	m.payload = make(map[string]string)
	m.writeCookie("", -time.Hour)
	return nil
}

// ID exposes the current identifier for tests and logging.
func (m *Manager) ID() string { return m.id }

func (m *Manager) issueID() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("session id generation: %v", err))
	}
	m.id = base64.RawURLEncoding.EncodeToString(buf)
}

func (m *Manager) writeCookie(value string, maxAge time.Duration) {
	m.c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
