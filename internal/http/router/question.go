package router

import (
	"coursesynth.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

// QuestionRouter mounts practice-question routes under /chapters; cid is a
// chapter id, qid a practice question id.
func QuestionRouter(rg *gin.RouterGroup, h *handler.QuestionHandler) {
	rg.GET("/:cid/questions", h.List)
	rg.GET("/:cid/questions/:qid/save", h.Save)
	rg.GET("/:cid/questions/:qid/feedback", h.Feedback)
}
