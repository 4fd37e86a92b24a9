package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	"github.com/tenderly-care/diagnosis-api/pkg/auth"
)

const testAPIKey = "service-key-12345"

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService("test-secret", "HS256", time.Hour)
	mw := NewAuthMiddleware(jwtSvc, config.APIKeyConfig{
		Key:             testAPIKey,
		HeaderName:      "X-API-Key",
		AllowedServices: []string{"tenderly-backend"},
	}, zerolog.Nop())

	r := gin.New()
	r.GET("/protected", mw.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject":   c.GetString(ContextSubject),
			"auth_type": c.GetString(ContextAuthType),
		})
	})
	return r, jwtSvc
}

func doRequest(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid API key passes", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		w := doRequest(r, map[string]string{
			"X-API-Key":      testAPIKey,
			"X-Service-Name": "tenderly-backend",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"auth_type":"api_key"`)
		assert.Contains(t, w.Body.String(), `"subject":"tenderly-backend"`)
	})

	t.Run("API key without service name defaults the subject", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		w := doRequest(r, map[string]string{"X-API-Key": testAPIKey})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"subject":"unknown"`)
	})

	t.Run("unlisted service name is allowed but flagged", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		w := doRequest(r, map[string]string{
			"X-API-Key":      testAPIKey,
			"X-Service-Name": "rogue-service",
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong API key is rejected without JWT fallback", func(t *testing.T) {
		r, jwtSvc := setupAuthRouter(t)
		token, err := jwtSvc.GenerateToken("user-1")
		require.NoError(t, err)

		// Valid bearer token alongside a bad key must not rescue the request.
		w := doRequest(r, map[string]string{
			"X-API-Key":     "wrong-key",
			"Authorization": "Bearer " + token,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ApiKey", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("valid bearer token passes", func(t *testing.T) {
		r, jwtSvc := setupAuthRouter(t)
		token, err := jwtSvc.GenerateToken("user-1")
		require.NoError(t, err)

		w := doRequest(r, map[string]string{"Authorization": "Bearer " + token})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"auth_type":"jwt"`)
		assert.Contains(t, w.Body.String(), `"subject":"user-1"`)
	})

	t.Run("malformed authorization header is rejected", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		w := doRequest(r, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		other := auth.NewJWTService("other-secret", "HS256", time.Hour)
		token, err := other.GenerateToken("user-1")
		require.NoError(t, err)

		w := doRequest(r, map[string]string{"Authorization": "Bearer " + token})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no credentials yields 401 with challenge", func(t *testing.T) {
		r, _ := setupAuthRouter(t)
		w := doRequest(r, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ApiKey, Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Contains(t, w.Body.String(), "AUTHENTICATION_ERROR")
	})
}
