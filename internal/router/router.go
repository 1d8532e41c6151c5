package router

import (
	"github.com/gin-gonic/gin"

	"github.com/DuckDHD/costshare/internal/handlers"
	"github.com/DuckDHD/costshare/internal/middleware"
)

// Router configures all application routes.
type Router struct {
	estimateHandler *handlers.EstimateHandler
	apiLimiter      *middleware.InMemoryRateLimiter
}

// NewRouter creates a new main router.
func NewRouter(estimateHandler *handlers.EstimateHandler) *Router {
	return &Router{
		estimateHandler: estimateHandler,
		apiLimiter:      middleware.NewAPIRateLimiter(),
	}
}

// SetupRoutes configures and returns the application's Gin engine.
func (r *Router) SetupRoutes() *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.CORS())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())
	engine.Use(r.apiLimiter.RateLimit())

	engine.GET("/health", handlers.Health)

	apiV1 := engine.Group("/api/v1")
	{
		apiV1.POST("/estimates", r.estimateHandler.Estimate)
	}

	return engine
}
