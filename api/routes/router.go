package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"scanhub/internal/handlers"
	"scanhub/internal/services"
	"scanhub/pkg/metrics"
)

// InitRouter builds the gin engine serving the scan API. limiter guards the
// scan submission endpoint; pass nil to disable rate limiting.
func InitRouter(scanService services.ScanServiceMethods, limiter *rate.Limiter) *gin.Engine {
	router := gin.Default()

	scanHandlers := handlers.NewScanHandler(scanService)

	router.GET("/healthz", scanHandlers.Health)
	router.GET("/status", scanHandlers.Status)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	InitScanRoutes(router, scanHandlers, limiter)

	return router
}

// rateLimit fails fast when the submission rate is exceeded, before the
// admission controller is even consulted.
func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handlers.ErrorResponse{
				Error: handlers.ErrorInfo{
					Kind:    "rate_limited",
					Message: "scan submission rate exceeded",
				},
			})
			return
		}
		c.Next()
	}
}
