package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func StatisticsRouter(rg *gin.RouterGroup, h *handler.StatisticsHandler) {
	rg.POST("/usage", h.RecordUsage)
}
