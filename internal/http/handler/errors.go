package handler

import (
	"errors"
	"net/http"

	"coursesynth.app/api/internal/service"
	"coursesynth.app/api/internal/store"
	"github.com/gin-gonic/gin"
)

// writeServiceError maps the service-layer sentinel errors shared across
// handlers to their HTTP status; handlers fall back to 500 for anything
// that doesn't match one of these.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInactiveUser):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is inactive"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrWrongOldPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "old password is incorrect"})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case errors.Is(err, service.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		var quotaErr *service.QuotaError
		if errors.As(err, &quotaErr) {
			writeQuotaError(c, quotaErr)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func writeQuotaError(c *gin.Context, qErr *service.QuotaError) {
	message := "course limit reached"
	if qErr.Code == service.QuotaCodeMaxPresent {
		message = "too many courses are currently being created or updated"
	}
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "LIMIT_REACHED",
		"code":    qErr.Code,
		"limit":   qErr.Limit,
		"message": message,
	})
}
