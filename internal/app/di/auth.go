package di

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricewatch/internal/config"
	"pricewatch/internal/platform/apikey"
	jwtmw "pricewatch/internal/platform/jwt"
)

// NewAuthMiddleware returns the gate placed in front of the read endpoint.
func NewAuthMiddleware(cfg config.AuthConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Mode == config.AuthModeJWT {
		return jwtmw.AuthRequired(cfg.JWTSecret)
	}

	v := apikey.Verifier{Key: cfg.APIKey, Hash: cfg.APIKeyHash}
	if !v.Configured() {
		log.Warn("API_KEY is not set. Every request to protected routes will be rejected.")
	}
	return apikey.Required(v)
}
