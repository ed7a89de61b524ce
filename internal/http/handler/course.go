package handler

import (
	"net/http"
	"strconv"

	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func (h *CourseHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, task, err := h.courses.Create(c.Request.Context(), userID, service.CreateParams{
		Query:       req.Query,
		TimeHours:   req.TimeHours,
		DocumentIDs: req.DocumentIDs,
		ImageIDs:    req.PictureIDs,
		Language:    req.Language,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	_ = task
	c.JSON(http.StatusCreated, dto.CreateCourseResponse{
		CourseID:              course.ID,
		TotalTimeHours:        course.TimeHours,
		Status:                course.Status,
		CompletedChapterCount: 0,
	})
}

func (h *CourseHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	courses, err := h.courses.ListOwned(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) ListPublic(c *gin.Context) {
	courses, err := h.courses.ListPublic(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID, _ := middleware.UserID(c)
	course, err := h.courses.Get(c.Request.Context(), id, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.courses.Delete(c.Request.Context(), id, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelGeneration signals cooperative cancellation of the course's
// in-flight generation task.
func (h *CourseHandler) CancelGeneration(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.courses.CancelGeneration(c.Request.Context(), id, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *CourseHandler) SetPublic(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req dto.SetPublicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)
	course, err := h.courses.SetPublic(c.Request.Context(), id, userID, req.IsPublic)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}
