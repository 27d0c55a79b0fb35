package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/pkg/config"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Router holds all handlers
type Router struct {
	cfg                *config.Config
	attributionHandler *Attribution
	webhookHandler     *Webhook
	artifactsHandler   *Artifacts
	checks             map[string]Pinger
	logger             *zap.Logger
}

// NewRouter creates a new router. artifacts may be nil when storage is disabled.
func NewRouter(cfg *config.Config, attribution *Attribution, webhook *Webhook, artifacts *Artifacts, checks map[string]Pinger, logger *zap.Logger) *Router {
	return &Router{
		cfg:                cfg,
		attributionHandler: attribution,
		webhookHandler:     webhook,
		artifactsHandler:   artifacts,
		checks:             checks,
		logger:             logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")
	rt.setupAttributionRoutes(v1)
	rt.setupJobRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupAttributionRoutes configures synchronous attribution routes
func (rt *Router) setupAttributionRoutes(g *echo.Group) {
	group := g.Group("/attributions")

	group.POST("", rt.attributionHandler.CreateAttribution)
	group.GET("/:id", rt.attributionHandler.GetAttribution)
	group.GET("/:id/render", rt.attributionHandler.RenderAttribution)
	if rt.artifactsHandler != nil {
		group.GET("/:id/artifacts", rt.artifactsHandler.ListArtifacts)
	} else {
		group.GET("/:id/artifacts", rt.notImplemented)
	}
}

// setupJobRoutes configures background attribution job routes
func (rt *Router) setupJobRoutes(g *echo.Group) {
	group := g.Group("/attribution-jobs")

	group.POST("", rt.attributionHandler.CreateJob)
	group.GET("/:id", rt.attributionHandler.GetJob)
}

// setupWebhookRoutes configures provider callbacks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	g.POST("/webhooks/assemblyai", rt.webhookHandler.HandleAssemblyAI)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not enabled",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Enable the backing service in configuration",
	})
}

// healthCheck pings every dependency and reports 503 when one is down
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			if rt.logger != nil {
				rt.logger.Warn("⚠️ Health check failed", zap.String("dependency", name), zap.Error(err))
			}
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	environment := ""
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(status, map[string]interface{}{
		"status":       overall,
		"environment":  environment,
		"dependencies": deps,
		"time":         time.Now().Format(time.RFC3339),
	})
}
