package routes

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"scanhub/internal/handlers"
)

func InitScanRoutes(router *gin.Engine, h *handlers.ScanHandler, limiter *rate.Limiter) {
	scanRoutes := router.Group("/scan")
	scanRoutes.Use(rateLimit(limiter))
	{
		scanRoutes.POST("", h.StartScan)
		scanRoutes.POST("/:id/cancel", h.CancelScan)
	}
}
