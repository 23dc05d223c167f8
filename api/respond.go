package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrAlreadyRedeemed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a domain error onto the JSON error envelope. Unexpected
// errors are logged and surfaced as a generic 500 with no internal detail.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		if errors.Is(err, domain.ErrRenderFailure) {
			message = domain.ErrRenderFailure.Error()
		} else {
			message = "Internal server error"
		}
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}
