package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func CourseRouter(rg *gin.RouterGroup, h *handler.CourseHandler, chapters *handler.ChapterHandler) {
	rg.POST("/create", h.Create)
	rg.GET("", h.List)
	rg.GET("/public", h.ListPublic)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/public", h.SetPublic)
	rg.POST("/:id/cancel", h.CancelGeneration)

	rg.GET("/:id/chapters", chapters.List)
	rg.GET("/:id/chapters/:cid", chapters.Get)
	rg.PUT("/:id/chapters/:cid", chapters.Update)
	rg.DELETE("/:id/chapters/:cid", chapters.Delete)
	rg.PATCH("/:id/chapters/:cid/complete", chapters.Complete)
	rg.PATCH("/:id/chapters/:cid/incomplete", chapters.Incomplete)
}
