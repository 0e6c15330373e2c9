package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// AnalyticsHandler wires the aggregation pipeline to HTTP routes.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview godoc
// @Summary Aggregate analytics for a class
// @Tags Analytics
// @Produce json
// @Param id path string true "Class ID"
// @Param student_id query string false "Narrow to one student"
// @Param behavior_id query string false "Narrow to one behavior"
// @Param from query string false "Start of range (RFC 3339)"
// @Param to query string false "End of range (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/analytics [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	req := service.AnalyticsRequest{
		ClassID:    c.Param("id"),
		StudentID:  c.Query("student_id"),
		BehaviorID: c.Query("behavior_id"),
	}
	var err error
	if req.From, err = parseTimeQuery(c.Query("from")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp"))
		return
	}
	if req.To, err = parseTimeQuery(c.Query("to")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp"))
		return
	}

	overview, err := h.analytics.Overview(c.Request.Context(), middleware.TeacherID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// StudentReport godoc
// @Summary Per-student report data for the email drafting flow
// @Tags Analytics
// @Produce json
// @Param id path string true "Student ID"
// @Param from query string false "Start of range (RFC 3339), defaults to 30 days ago"
// @Param to query string false "End of range (RFC 3339), defaults to now"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/report [get]
func (h *AnalyticsHandler) StudentReport(c *gin.Context) {
	fromPtr, err := parseTimeQuery(c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp"))
		return
	}
	toPtr, err := parseTimeQuery(c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp"))
		return
	}

	to := time.Now().UTC()
	if toPtr != nil {
		to = *toPtr
	}
	from := to.AddDate(0, 0, -30)
	if fromPtr != nil {
		from = *fromPtr
	}

	report, err := h.analytics.StudentReport(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
