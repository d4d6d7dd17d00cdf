package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/api/flash"
	"github.com/reingma/newsletter/internal/api/handler"
	"github.com/reingma/newsletter/internal/api/middleware"
	"github.com/reingma/newsletter/internal/core/ports"
)

// Deps bundles everything the router wires together. Handlers depend on
// the service ports only, so tests can assemble a router around stubs.
type Deps struct {
	Auth          ports.AuthService
	Subscriptions ports.SubscriptionService
	Newsletters   ports.NewsletterService
	Sessions      ports.SessionStore
	Flash         *flash.Codec
	SessionTTL    time.Duration

	PostgresPing handler.Pinger
	RedisPing    handler.Pinger

	// Metrics overrides the prometheus registry; nil means the default
	// registry. Tests building several routers need their own.
	Metrics *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := prometheus.DefaultRegisterer
	gatherer := prometheus.DefaultGatherer
	if deps.Metrics != nil {
		registerer = deps.Metrics
		gatherer = deps.Metrics
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "newsletter",
		Registerer: registerer,
	}))

	loadSession := middleware.LoadSession(deps.Sessions, deps.SessionTTL)
	requireAuth := middleware.RequireAuth()

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Flash)
	subscriptionHandler := handler.NewSubscriptionHandler(deps.Subscriptions)
	newsletterHandler := handler.NewNewsletterHandler(deps.Newsletters)

	// --- Public routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "welcome to the newsletter service"})
	})
	e.POST("/subscriptions", subscriptionHandler.Subscribe)
	e.GET("/subscriptions/confirm", subscriptionHandler.Confirm)
	e.GET("/login", authHandler.LoginForm)
	e.POST("/login", authHandler.Login, loadSession)

	// --- Admin routes (session-authenticated) ---
	admin := e.Group("/admin", loadSession, requireAuth)
	admin.GET("/dashboard", authHandler.Dashboard)
	admin.POST("/password", authHandler.ChangePassword)
	admin.POST("/newsletters", newsletterHandler.Publish)
	admin.POST("/logout", authHandler.Logout)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.PostgresPing, deps.RedisPing)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	return e
}
