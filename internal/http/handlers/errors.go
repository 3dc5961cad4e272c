package handlers

import (
	"errors"
	"log"
	"net/http"

	"schoolbus/internal/domain"
	"schoolbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses. A completion
// blocked by unchecked students carries details.pendingCount. Only an
// InternalError's own message reaches the client; other errors are masked.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		var details any
		if n, ok := domain.PendingCount(err); ok {
			details = gin.H{"pendingCount": n}
		}
		respondError(c, http.StatusConflict, "conflict", err.Error(), details)
	case domain.IsInternal(err):
		var ie domain.InternalError
		errors.As(err, &ie)
		log.Printf("[HTTP] request_id=%s path=%s internal_error=%v cause=%v", middleware.GetRequestID(c), c.Request.URL.Path, err, ie.Err)
		respondError(c, http.StatusInternalServerError, "internal_error", ie.Error(), nil)
	default:
		log.Printf("[HTTP] request_id=%s path=%s internal_error=%v", middleware.GetRequestID(c), c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
