package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reingma/newsletter/internal/api/metrics"
	"github.com/reingma/newsletter/internal/api/middleware"
	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// NewsletterHandler exposes the idempotent publish endpoint.
type NewsletterHandler struct {
	newsletters ports.NewsletterService
}

func NewNewsletterHandler(newsletters ports.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletters: newsletters}
}

type publishRequest struct {
	Title          string `form:"title" validate:"required"`
	ContentText    string `form:"content_text" validate:"required"`
	ContentHTML    string `form:"content_html" validate:"required"`
	IdempotencyKey string `form:"idempotency_key" validate:"required"`
}

// Publish handles POST /admin/newsletters. The recorded response for a
// repeated idempotency key is written back verbatim: status, headers and
// body bytes exactly as first produced.
func (h *NewsletterHandler) Publish(c echo.Context) error {
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		metrics.PublishTotal.WithLabelValues("invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	if err := c.Validate(&req); err != nil {
		metrics.PublishTotal.WithLabelValues("invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	key, err := domain.ParseIdempotencyKey(req.IdempotencyKey)
	if err != nil {
		metrics.PublishTotal.WithLabelValues("invalid_input").Inc()
		return err
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	issue := domain.Issue{
		Title:       req.Title,
		ContentText: req.ContentText,
		ContentHTML: req.ContentHTML,
	}
	resp, err := h.newsletters.Publish(c.Request().Context(), userID, key, issue)
	if err != nil {
		metrics.PublishTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.PublishTotal.WithLabelValues("ok").Inc()
	return writeSavedResponse(c, resp)
}

// writeSavedResponse replays a recorded response bit-exactly.
func writeSavedResponse(c echo.Context, resp ports.SavedResponse) error {
	header := c.Response().Header()
	for _, h := range resp.Headers {
		header.Add(h.Name, string(h.Value))
	}
	c.Response().WriteHeader(resp.StatusCode)
	_, err := c.Response().Write(resp.Body)
	return err
}
