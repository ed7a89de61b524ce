package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.POST("/refresh", h.Refresh)
	rg.GET("/login/:provider", h.OAuthLogin)
	rg.GET("/:provider/callback", h.OAuthCallback)
}
