package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/api/flash"
	"github.com/reingma/newsletter/internal/api/metrics"
	"github.com/reingma/newsletter/internal/api/middleware"
	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// AuthHandler exposes login, logout, the admin dashboard and password
// changes.
type AuthHandler struct {
	auth  ports.AuthService
	flash *flash.Codec
}

func NewAuthHandler(auth ports.AuthService, flash *flash.Codec) *AuthHandler {
	return &AuthHandler{auth: auth, flash: flash}
}

type loginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginForm handles GET /login. With no HTML rendering in scope it returns
// the consumed flash message, if any, as JSON.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	msg, _ := h.flash.Read(c)
	return c.JSON(http.StatusOK, map[string]string{"error": msg})
}

// Login handles POST /login. On success the session id is rotated and the
// principal attached; on bad credentials the client is redirected back to
// the login form with a flash message. Unknown-username and wrong-password
// are deliberately indistinguishable here.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := h.auth.ValidateCredentials(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			return h.flash.Redirect(c, "/login", "Authentication failed.")
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
	}
	if err := sess.Establish(c.Request().Context(), userID); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// Logout handles POST /admin/logout: the session is destroyed outright and
// the old identifier never resolves again.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
	}
	if err := sess.Destroy(c.Request().Context()); err != nil {
		return err
	}
	return h.flash.Redirect(c, "/login", "You have successfully logged out.")
}

// Dashboard handles GET /admin/dashboard.
func (h *AuthHandler) Dashboard(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	username, err := h.auth.Username(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	msg, _ := h.flash.Read(c)
	return c.JSON(http.StatusOK, map[string]string{
		"username": username,
		"flash":    msg,
	})
}

type changePasswordRequest struct {
	CurrentPassword  string `form:"current_password" validate:"required"`
	NewPassword      string `form:"new_password" validate:"required"`
	NewPasswordCheck string `form:"new_password_check" validate:"required"`
}

// ChangePassword handles POST /admin/password: the confirmation fields
// must match, the new password must satisfy the policy, and the current
// password is re-validated before anything is persisted.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	if req.NewPassword != req.NewPasswordCheck {
		return h.flash.Redirect(c, "/admin/dashboard",
			"You entered two different new passwords - the field values must match.")
	}
	newPassword, err := domain.ParsePassword(req.NewPassword)
	if err != nil {
		return h.flash.Redirect(c, "/admin/dashboard", err.Error())
	}

	username, err := h.auth.Username(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if _, err := h.auth.ValidateCredentials(c.Request().Context(), username, req.CurrentPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return h.flash.Redirect(c, "/admin/dashboard", "The current password is incorrect.")
		}
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), userID, newPassword); err != nil {
		return err
	}
	return h.flash.Redirect(c, "/admin/dashboard", "Your password has been changed.")
}
