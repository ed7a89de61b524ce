package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func SearchRouter(rg *gin.RouterGroup, h *handler.SearchHandler) {
	rg.GET("", h.Query)
}
