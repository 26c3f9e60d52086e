// Package router assembles the gin engine.
package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	pricehandler "pricewatch/internal/feature/price/transport/handler"
	"pricewatch/internal/platform/apikey"
	platformhandler "pricewatch/internal/platform/http/handler"
	"pricewatch/internal/platform/metrics"
	"pricewatch/internal/platform/middleware"
)

// Params are the collaborators of NewRouter.
type Params struct {
	Price        *pricehandler.PriceHandler
	Auth         gin.HandlerFunc
	Ready        gin.HandlerFunc
	Gatherer     prometheus.Gatherer
	AllowOrigins []string
	Log          *zap.Logger
}

// NewRouter builds the engine. /healthz, /readyz and /metrics are public;
// /price sits behind p.Auth.
func NewRouter(p Params) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(p.Log))
	if c, ok := corsConfig(p.AllowOrigins); ok {
		r.Use(cors.New(c))
	}

	// Public routes
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	if p.Ready != nil {
		r.GET("/readyz", p.Ready)
	}
	if p.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(p.Gatherer)))
	}

	// Authenticated routes
	auth := r.Group("/")
	auth.Use(p.Auth)
	{
		auth.GET("/price", p.Price.GetLatest)
	}

	return r
}

// corsConfig allows GET from the configured origins. "*" allows any origin.
// It reports false when no origin is configured, which disables CORS.
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", apikey.Header, middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c, true
}
