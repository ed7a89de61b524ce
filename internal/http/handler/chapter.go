package handler

import (
	"net/http"
	"strconv"

	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type ChapterHandler struct {
	chapters *service.ChapterService
}

func NewChapterHandler(chapters *service.ChapterService) *ChapterHandler {
	return &ChapterHandler{chapters: chapters}
}

func (h *ChapterHandler) List(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	userID, _ := middleware.UserID(c)
	chapters, err := h.chapters.List(c.Request.Context(), courseID, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *ChapterHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	userID, _ := middleware.UserID(c)
	chapter, err := h.chapters.Get(c.Request.Context(), id, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *ChapterHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)
	chapter, err := h.chapters.Update(c.Request.Context(), id, userID, req.Caption, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *ChapterHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.chapters.Delete(c.Request.Context(), id, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChapterHandler) Complete(c *gin.Context) {
	h.setCompleted(c, true)
}

func (h *ChapterHandler) Incomplete(c *gin.Context) {
	h.setCompleted(c, false)
}

func (h *ChapterHandler) setCompleted(c *gin.Context, completed bool) {
	id, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.chapters.SetCompleted(c.Request.Context(), id, userID, completed); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}
