package handler

import (
	"net/http"

	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Query(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	results, err := h.search.Query(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	out := make([]dto.SearchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, dto.ToSearchResultResponse(r))
	}
	c.JSON(http.StatusOK, out)
}
