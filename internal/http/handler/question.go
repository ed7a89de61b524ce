package handler

import (
	"net/http"
	"strconv"

	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

func (h *QuestionHandler) List(c *gin.Context) {
	chapterID, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	userID, _ := middleware.UserID(c)
	questions, err := h.questions.List(c.Request.Context(), chapterID, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) Save(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("qid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	userID, _ := middleware.UserID(c)
	question, err := h.questions.Save(c.Request.Context(), id, userID, c.Query("users_answer"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) Feedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("qid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	userID, _ := middleware.UserID(c)
	question, err := h.questions.Feedback(c.Request.Context(), id, userID, c.Query("users_answer"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}
