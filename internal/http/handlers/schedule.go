package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"schoolbus/internal/domain"
	"schoolbus/internal/services"
	"schoolbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// Scheduler is the driver schedule facade; services.ScheduleService implements it.
type Scheduler interface {
	TodaySummary(ctx context.Context, driverID int64, filter domain.ShiftFilter) (services.TodaySummary, error)
	ActiveRoute(ctx context.Context, driverID int64, filter domain.ShiftFilter) (services.ActiveRoute, error)
	StartTrip(ctx context.Context, driverID int64, filter domain.ShiftFilter) (services.TripTransitionResult, error)
	CompleteTrip(ctx context.Context, driverID int64, filter domain.ShiftFilter) (services.TripTransitionResult, error)
	StudentRoster(ctx context.Context, driverID int64, filter domain.ShiftFilter) (services.StudentRoster, error)
	Attend(ctx context.Context, driverID, studentID int64, filter domain.ShiftFilter) (services.AttendanceResult, error)
	UndoAttend(ctx context.Context, driverID, studentID int64, filter domain.ShiftFilter) (services.AttendanceResult, error)
}

type ManifestGenerator interface {
	Generate(ctx context.Context, driverID int64, filter domain.ShiftFilter) ([]byte, string, error)
}

// ScheduleHandler serves /api/driver/schedule.
type ScheduleHandler struct {
	Schedule Scheduler
	Manifest ManifestGenerator
	Clock    utils.Clock
}

// request resolves the driver and the optional shift filter, writing the
// error response itself when either is missing or invalid.
func (h ScheduleHandler) request(c *gin.Context) (int64, domain.ShiftFilter, bool) {
	driverID, ok := requireDriver(c)
	if !ok {
		return 0, nil, false
	}
	filter, err := shiftFilter(c, h.Clock)
	if err != nil {
		RespondDomainError(c, err)
		return 0, nil, false
	}
	return driverID, filter, true
}

// GET /api/driver/schedule/today
func (h ScheduleHandler) Today(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	out, err := h.Schedule.TodaySummary(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/driver/schedule/active-route
func (h ScheduleHandler) ActiveRoute(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	out, err := h.Schedule.ActiveRoute(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/driver/schedule/start
func (h ScheduleHandler) Start(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	out, err := h.Schedule.StartTrip(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/driver/schedule/complete
func (h ScheduleHandler) Complete(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	out, err := h.Schedule.CompleteTrip(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/driver/schedule/students
func (h ScheduleHandler) Students(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	out, err := h.Schedule.StudentRoster(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/driver/schedule/students/:studentId/attend
func (h ScheduleHandler) Attend(c *gin.Context) {
	h.attendance(c, h.Schedule.Attend)
}

// DELETE /api/driver/schedule/students/:studentId/attend
func (h ScheduleHandler) UndoAttend(c *gin.Context) {
	h.attendance(c, h.Schedule.UndoAttend)
}

func (h ScheduleHandler) attendance(c *gin.Context, op func(context.Context, int64, int64, domain.ShiftFilter) (services.AttendanceResult, error)) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	studentID, err := pathID(c, "studentId")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out, err := op(c.Request.Context(), driverID, studentID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/driver/schedule/manifest.pdf
func (h ScheduleHandler) ManifestPDF(c *gin.Context) {
	driverID, filter, ok := h.request(c)
	if !ok {
		return
	}
	pdf, filename, err := h.Manifest.Generate(c.Request.Context(), driverID, filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
