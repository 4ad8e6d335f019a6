package handlers

import (
	"errors"
	"net/http"
	"os"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/model"
	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses:
// ValidationError 400, InvariantViolation 409, TransportError 502 (or the
// upstream 429/503), missing plan 404, closed session 410, no simulator 503.
func respondError(c *gin.Context, err error) {
	var (
		ve *model.ValidationError
		iv *model.InvariantViolation
		te *model.TransportError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: ve.Error(),
				Details: map[string]interface{}{"field": ve.Field},
			},
		})
	case errors.As(err, &iv):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "EDIT_REJECTED",
				Message: iv.Error(),
				Details: map[string]interface{}{
					"op":     iv.Op,
					"step":   iv.Step,
					"reason": iv.Reason,
				},
			},
		})
	case errors.As(err, &te):
		status := http.StatusBadGateway
		if te.StatusCode == http.StatusTooManyRequests || te.StatusCode == http.StatusServiceUnavailable {
			status = te.StatusCode
		}
		c.JSON(status, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    te.Code,
				Message: te.Error(),
				Details: map[string]interface{}{
					"status_code": te.StatusCode,
					"retry_after": te.RetryAfter,
				},
			},
		})
	case errors.Is(err, session.ErrNoSimulator):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NO_SIMULATOR",
				Message: err.Error(),
			},
		})
	case errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusGone, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "SESSION_CLOSED",
				Message: err.Error(),
			},
		})
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: err.Error(),
			},
		})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}
