package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrStoreNotFound),
		errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPredictionFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": err.Error()})
}

func parseScope(c *gin.Context) (domain.Scope, bool) {
	scope, err := domain.ParseScope(c.Query("store_id"))
	if err != nil {
		badRequest(c, "invalid store_id", err)
		return domain.Scope{}, false
	}
	return scope, true
}
