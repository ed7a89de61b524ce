package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func ChatRouter(rg *gin.RouterGroup, h *handler.ChatHandler) {
	rg.POST("/:chapter_id", h.Stream)
}
