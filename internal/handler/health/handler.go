// Package health exposes liveness and readiness probes. Dependency checks
// are cached briefly so probe traffic does not hammer the model provider.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

// DependencyChecker reports whether one external dependency is reachable.
type DependencyChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a plain function to DependencyChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

const (
	probeCacheKey   = "dependency_status"
	probeTimeout    = 5 * time.Second
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type Handler struct {
	version  string
	checkers map[string]DependencyChecker
	cache    *cache.Cache
	logger   zerolog.Logger
}

func NewHandler(version string, checkers map[string]DependencyChecker, probeTTL time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		version:  version,
		checkers: checkers,
		cache:    cache.New(probeTTL, 2*probeTTL),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/", h.Check)
		health.GET("/live", h.Live)
		health.GET("/ready", h.Ready)
	}
}

// Check reports per-dependency status. The service stays "degraded" rather
// than "unhealthy" while at least one dependency works, since validation-only
// endpoints remain usable without the model provider.
func (h *Handler) Check(c *gin.Context) {
	services := h.dependencyStatus(c.Request.Context())

	healthy, total := 0, len(services)
	for _, status := range services {
		if status == statusHealthy {
			healthy++
		}
	}

	overall := statusHealthy
	switch {
	case total > 0 && healthy == 0:
		overall = statusUnhealthy
	case healthy < total:
		overall = statusDegraded
	}

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, model.HealthCheckResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Services:  services,
	})
}

// Live answers as long as the process serves requests.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready reports whether the service can take diagnosis traffic.
func (h *Handler) Ready(c *gin.Context) {
	services := h.dependencyStatus(c.Request.Context())
	for name, status := range services {
		if status != statusHealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failing": name})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) dependencyStatus(ctx context.Context) map[string]string {
	if cached, ok := h.cache.Get(probeCacheKey); ok {
		return cached.(map[string]string)
	}

	services := make(map[string]string, len(h.checkers))
	for name, checker := range h.checkers {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := checker.HealthCheck(probeCtx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
			services[name] = statusUnhealthy
		} else {
			services[name] = statusHealthy
		}
		cancel()
	}

	h.cache.SetDefault(probeCacheKey, services)
	return services
}
