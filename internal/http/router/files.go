package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func FilesRouter(rg *gin.RouterGroup, h *handler.FilesHandler) {
	rg.POST("/documents", h.UploadDocument)
	rg.POST("/images", h.UploadImage)
	rg.GET("/documents", h.ListDocuments)
	rg.GET("/documents/:id", h.DownloadDocument)
	rg.GET("/images/:id", h.DownloadImage)
}
