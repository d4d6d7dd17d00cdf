package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/api/session"
)

type mapStore struct {
	sessions map[string]map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[string]map[string]string)}
}

func (s *mapStore) Get(_ context.Context, id string) (map[string]string, bool, error) {
	payload, ok := s.sessions[id]
	return payload, ok, nil
}

func (s *mapStore) Set(_ context.Context, id string, payload map[string]string, _ time.Duration) error {
	s.sessions[id] = payload
	return nil
}

func (s *mapStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func request(t *testing.T, store *mapStore, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder, func(handler echo.HandlerFunc) error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	run := func(handler echo.HandlerFunc) error {
		chain := LoadSession(store, time.Hour)(RequireAuth()(handler))
		return chain(c)
	}
	return c, rec, run
}

func TestRequireAuth_AnonymousRedirectsToLogin(t *testing.T) {
	store := newMapStore()
	_, rec, run := request(t, store)

	err := run(func(c echo.Context) error {
		t.Fatal("handler reached without authentication")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestRequireAuth_AuthenticatedPassesPrincipal(t *testing.T) {
	store := newMapStore()
	userID := uuid.New()
	store.sessions["known-id"] = map[string]string{"user_id": userID.String()}

	_, _, run := request(t, store, &http.Cookie{Name: session.CookieName, Value: "known-id"})

	reached := false
	err := run(func(c echo.Context) error {
		reached = true
		got, ok := UserIDFromContext(c)
		if !ok {
			t.Fatal("no principal attached")
		}
		if got != userID {
			t.Fatalf("unexpected principal: %s", got)
		}
		if _, ok := SessionFromContext(c); !ok {
			t.Fatal("no session manager attached")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reached {
		t.Fatal("handler not reached")
	}
}

func TestRequireAuth_WithoutLoadSessionFails(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequireAuth()(func(echo.Context) error { return nil })(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
}
