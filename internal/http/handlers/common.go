package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"schoolbus/internal/domain"
	"schoolbus/internal/http/middleware"
	"schoolbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondError sends standard error payload with request_id included.
// Always provides "message" for older clients.
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

// shiftFilter reads the optional ?shift= and ?session= query parameters.
func shiftFilter(c *gin.Context, clock utils.Clock) (domain.ShiftFilter, error) {
	return domain.ParseShiftFilter(c.Query("shift"), c.Query("session"), clock.Now())
}

func pathID(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Msg: "must be a positive integer"}
	}
	return id, nil
}

func requireDriver(c *gin.Context) (int64, bool) {
	id, ok := middleware.GetDriverID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "driver identity missing", nil)
		return 0, false
	}
	return id, true
}
