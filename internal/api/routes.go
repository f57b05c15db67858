package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthCheckTimeout bounds the database ping during health checks.
const healthCheckTimeout = 2 * time.Second

// Pinger checks storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetupRoutes registers all routes on the engine. The health endpoint
// is unauthenticated; everything under /api/v1 requires an API key.
func SetupRoutes(
	router *gin.Engine,
	users UserResolver,
	links *LinkHandler,
	tags *TagHandler,
	db Pinger,
	serviceName, serviceVersion string,
) {
	router.GET("/health", healthHandler(db, serviceName, serviceVersion))

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(users))
	{
		v1.POST("/links", links.Create)
		v1.GET("/links", links.List)
		v1.POST("/links/:id/archive", links.Archive)
		v1.POST("/links/:id/unarchive", links.Unarchive)
		v1.POST("/links/:id/tags", tags.Add)
		v1.DELETE("/links/:id/tags/:name", tags.Remove)
		v1.GET("/tags", tags.Suggest)
	}
}

// healthHandler reports service and storage health.
func healthHandler(db Pinger, serviceName, serviceVersion string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := "healthy"
		dbStatus := "connected"
		code := http.StatusOK
		if pingErr := db.Ping(ctx); pingErr != nil {
			status = "degraded"
			dbStatus = "disconnected"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"service":  serviceName,
			"version":  serviceVersion,
			"database": dbStatus,
		})
	}
}
