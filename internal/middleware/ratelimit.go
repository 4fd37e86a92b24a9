package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tenderly-care/diagnosis-api/internal/handler"
	"github.com/tenderly-care/diagnosis-api/internal/ratelimit"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

// RateLimit enforces the per-identifier sliding window. The identifier is
// the authenticated subject when present, otherwise the client IP, so
// unauthenticated endpoints still get per-source fairness.
func RateLimit(limiter *ratelimit.Limiter, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.GetString(ContextSubject)
		if identifier == "" {
			identifier = c.ClientIP()
		}

		if err := limiter.Check(c.Request.Context(), identifier); err != nil {
			handler.RespondError(c, err, debug)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit is a process-wide token bucket in front of the
// per-identifier limiter. Zero rps disables it.
func GlobalRateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			handler.RespondError(c, apperrors.NewRateLimited(burst, time.Second), false)
			return
		}
		c.Next()
	}
}
