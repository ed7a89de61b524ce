package handler

import (
	"net/http"

	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statistics *service.StatisticsService
}

func NewStatisticsHandler(statistics *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics}
}

func (h *StatisticsHandler) RecordUsage(c *gin.Context) {
	var req dto.UsageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var courseID, chapterID int64
	if req.CourseID != nil {
		courseID = *req.CourseID
	}
	if req.ChapterID != nil {
		chapterID = *req.ChapterID
	}

	if err := h.statistics.RecordVisibility(c.Request.Context(), req.UserID, courseID, chapterID, req.Visible); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
