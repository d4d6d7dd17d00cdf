package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/api/metrics"
	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// SubscriptionHandler exposes signup and confirmation.
type SubscriptionHandler struct {
	subscriptions ports.SubscriptionService
}

func NewSubscriptionHandler(subscriptions ports.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

type subscribeRequest struct {
	Name  string `form:"name" validate:"required"`
	Email string `form:"email" validate:"required"`
}

// Subscribe handles POST /subscriptions: validates the form, then runs the
// transactional signup (subscriber + token + confirmation email).
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		metrics.SubscriptionsTotal.WithLabelValues("invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	if err := c.Validate(&req); err != nil {
		metrics.SubscriptionsTotal.WithLabelValues("invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.subscriptions.Subscribe(c.Request().Context(), req.Name, req.Email); err != nil {
		switch {
		case isValidationError(err):
			metrics.SubscriptionsTotal.WithLabelValues("invalid_input").Inc()
		case errors.Is(err, domain.ErrAlreadySubscribed):
			metrics.SubscriptionsTotal.WithLabelValues("duplicate").Inc()
		default:
			metrics.SubscriptionsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.SubscriptionsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "check your email for a confirmation link",
	})
}

// Confirm handles GET /subscriptions/confirm?subscription_token=...
// A missing parameter is a 400; an unknown or expired token a 401.
func (h *SubscriptionHandler) Confirm(c echo.Context) error {
	token := c.QueryParam("subscription_token")
	if token == "" {
		metrics.ConfirmationsTotal.WithLabelValues("invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "subscription_token parameter is required")
	}

	if err := h.subscriptions.Confirm(c.Request().Context(), token); err != nil {
		switch {
		case isValidationError(err):
			metrics.ConfirmationsTotal.WithLabelValues("invalid_input").Inc()
		case errors.Is(err, domain.ErrTokenNotFound):
			metrics.ConfirmationsTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.ConfirmationsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "subscription confirmed",
	})
}

func isValidationError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
