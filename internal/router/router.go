package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	"github.com/tenderly-care/diagnosis-api/internal/middleware"
	"github.com/tenderly-care/diagnosis-api/pkg/metrics"
)

// Handler registers its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	cfg        *config.Config
	auth       *middleware.AuthMiddleware
	rateLimit  gin.HandlerFunc
	diagnosisH Handler
	healthH    Handler
}

func New(
	cfg *config.Config,
	auth *middleware.AuthMiddleware,
	rateLimit gin.HandlerFunc,
	diagnosisH Handler,
	healthH Handler,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Router {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	engine.Use(middleware.CORS(corsCfg))
	engine.Use(middleware.GlobalRateLimit(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalBurst))

	return &Router{
		engine:     engine,
		cfg:        cfg,
		auth:       auth,
		rateLimit:  rateLimit,
		diagnosisH: diagnosisH,
		healthH:    healthH,
	}
}

// Setup wires all routes. Health probes and the service banner stay
// unauthenticated; diagnosis routes require auth and are rate-limited per
// authenticated subject.
func (r *Router) Setup() {
	r.engine.GET("/", r.banner)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), r.rateLimit)
	r.diagnosisH.RegisterRoutes(protected)
}

func (r *Router) banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   r.cfg.AppName,
		"version":   r.cfg.AppVersion,
		"status":    "running",
		"timestamp": time.Now().UTC(),
	})
}

// Engine exposes the underlying engine for the HTTP server and tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
