package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderly-care/diagnosis-api/internal/model"
)

type countingChecker struct {
	err   error
	calls int
}

func (c *countingChecker) HealthCheck(context.Context) error {
	c.calls++
	return c.err
}

func setupHealth(checkers map[string]DependencyChecker, ttl time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler("1.0.0", checkers, ttl, zerolog.Nop())
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func getPath(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		r := setupHealth(map[string]DependencyChecker{
			"openai": &countingChecker{},
			"redis":  &countingChecker{},
		}, time.Minute)

		w := getPath(r, "/api/v1/health/")
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.HealthCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.0.0", resp.Version)
		assert.Equal(t, "healthy", resp.Services["openai"])
		assert.Equal(t, "healthy", resp.Services["redis"])
	})

	t.Run("one failing dependency degrades", func(t *testing.T) {
		r := setupHealth(map[string]DependencyChecker{
			"openai": &countingChecker{err: errors.New("timeout")},
			"redis":  &countingChecker{},
		}, time.Minute)

		w := getPath(r, "/api/v1/health/")
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.HealthCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Services["openai"])
	})

	t.Run("all failing is unhealthy with 503", func(t *testing.T) {
		r := setupHealth(map[string]DependencyChecker{
			"openai": &countingChecker{err: errors.New("down")},
			"redis":  &countingChecker{err: errors.New("down")},
		}, time.Minute)

		w := getPath(r, "/api/v1/health/")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy")
	})

	t.Run("probe results are cached", func(t *testing.T) {
		checker := &countingChecker{}
		r := setupHealth(map[string]DependencyChecker{"openai": checker}, time.Minute)

		getPath(r, "/api/v1/health/")
		getPath(r, "/api/v1/health/")
		getPath(r, "/api/v1/health/ready")

		assert.Equal(t, 1, checker.calls)
	})
}

func TestLiveness(t *testing.T) {
	// Liveness must not touch dependencies.
	checker := &countingChecker{err: errors.New("down")}
	r := setupHealth(map[string]DependencyChecker{"openai": checker}, time.Minute)

	w := getPath(r, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, checker.calls)
}

func TestReadiness(t *testing.T) {
	t.Run("ready when dependencies are up", func(t *testing.T) {
		r := setupHealth(map[string]DependencyChecker{"openai": &countingChecker{}}, time.Minute)
		w := getPath(r, "/api/v1/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready when a dependency is down", func(t *testing.T) {
		r := setupHealth(map[string]DependencyChecker{"openai": &countingChecker{err: errors.New("down")}}, time.Minute)
		w := getPath(r, "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "openai")
	})
}
