package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	"github.com/tenderly-care/diagnosis-api/internal/handler"
	"github.com/tenderly-care/diagnosis-api/pkg/auth"
)

const (
	// ContextSubject holds the authenticated subject (service name or JWT sub).
	ContextSubject = "subject"
	// ContextAuthType records which scheme authenticated the request.
	ContextAuthType = "auth_type"
)

// AuthMiddleware authenticates requests with an API key (preferred,
// service-to-service) or a legacy bearer JWT, tried in that order. A request
// carrying an API-key header that fails verification is rejected outright;
// it never falls back to JWT.
type AuthMiddleware struct {
	jwtSvc *auth.JWTService
	apiKey config.APIKeyConfig
	logger zerolog.Logger
}

func NewAuthMiddleware(jwtSvc *auth.JWTService, apiKey config.APIKeyConfig, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, apiKey: apiKey, logger: logger}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(m.apiKey.HeaderName); key != "" {
			m.authenticateAPIKey(c, key)
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			m.authenticateJWT(c, authHeader)
			return
		}

		c.Header("WWW-Authenticate", "ApiKey, Bearer")
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse(
			"no valid authentication provided, use "+m.apiKey.HeaderName+" header or Bearer token",
			"AUTHENTICATION_ERROR"))
		c.Abort()
	}
}

func (m *AuthMiddleware) authenticateAPIKey(c *gin.Context, key string) {
	if m.apiKey.Key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey.Key)) != 1 {
		m.logger.Warn().Str("client_ip", c.ClientIP()).Msg("invalid API key")
		c.Header("WWW-Authenticate", "ApiKey")
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid API key", "AUTHENTICATION_ERROR"))
		c.Abort()
		return
	}

	service := c.GetHeader("X-Service-Name")
	if service != "" && len(m.apiKey.AllowedServices) > 0 && !contains(m.apiKey.AllowedServices, service) {
		// Allowed through for now, but flagged.
		m.logger.Warn().Str("service", service).Msg("request from unlisted service")
	}
	if service == "" {
		service = "unknown"
	}

	c.Set(ContextSubject, service)
	c.Set(ContextAuthType, "api_key")
	c.Next()
}

func (m *AuthMiddleware) authenticateJWT(c *gin.Context, authHeader string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format", "AUTHENTICATION_ERROR"))
		c.Abort()
		return
	}

	claims, err := m.jwtSvc.ValidateToken(parts[1])
	if err != nil {
		m.logger.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("JWT validation failed")
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token", "AUTHENTICATION_ERROR"))
		c.Abort()
		return
	}

	c.Set(ContextSubject, claims.Subject)
	c.Set(ContextAuthType, "jwt")
	c.Next()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
