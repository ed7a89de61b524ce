package router

import (
	"coursesynth.app/api/internal/http/handler"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/store"
	"github.com/gin-gonic/gin"
)

func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler, users store.UserStore) {
	rg.GET("/me", h.Me)
	rg.GET("", middleware.RequireAdmin(users), h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PUT("/:id/change_password", h.ChangePassword)
}
