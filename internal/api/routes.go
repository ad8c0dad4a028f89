package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/api/middleware"
)

// RegisterFrameRoutes 注册 /api/v1 运维路由
func RegisterFrameRoutes(r gin.IRouter, h *FrameHandler, authCfg middleware.AuthConfig, logger *zap.Logger) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(authCfg, logger))
	if !authCfg.Enabled {
		logger.Warn("api authentication disabled")
	}

	v1.POST("/frames/decode", h.Decode)
	v1.POST("/frames/encode", h.Encode)
	v1.GET("/frames/recent", h.Recent)
	v1.GET("/links", h.Links)
	v1.POST("/links/:address/frames", h.Send)
}
