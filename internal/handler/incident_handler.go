package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// IncidentHandler wires the incident log to HTTP routes.
type IncidentHandler struct {
	incidents *service.IncidentService
	metrics   *service.MetricsService
}

// NewIncidentHandler constructs a new IncidentHandler.
func NewIncidentHandler(incidents *service.IncidentService, metrics *service.MetricsService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents, metrics: metrics}
}

// Log godoc
// @Summary Log one incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body service.LogIncidentRequest true "Incident payload"
// @Success 201 {object} response.Envelope
// @Router /incidents [post]
func (h *IncidentHandler) Log(c *gin.Context) {
	var req service.LogIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid incident payload"))
		return
	}
	logged, err := h.incidents.Log(c.Request.Context(), middleware.TeacherID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordIncidentLogged(string(logged.Cue))
	}
	response.Created(c, logged)
}

// List godoc
// @Summary List incidents for a student or class
// @Tags Incidents
// @Produce json
// @Param student_id query string false "Student ID"
// @Param class_id query string false "Class ID"
// @Param from query string false "Start of range (RFC 3339)"
// @Param to query string false "End of range (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	filter := models.IncidentFilter{
		StudentID: c.Query("student_id"),
		ClassID:   c.Query("class_id"),
	}
	var err error
	if filter.From, err = parseTimeQuery(c.Query("from")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp"))
		return
	}
	if filter.To, err = parseTimeQuery(c.Query("to")); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp"))
		return
	}

	incidents, err := h.incidents.List(c.Request.Context(), middleware.TeacherID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incidents, nil)
}

// Delete godoc
// @Summary Undo a mistaken incident log
// @Tags Incidents
// @Param id path string true "Incident ID"
// @Success 204
// @Router /incidents/{id} [delete]
func (h *IncidentHandler) Delete(c *gin.Context) {
	if err := h.incidents.Delete(c.Request.Context(), middleware.TeacherID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseTimeQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Bare dates are accepted as local midnight.
		day, dayErr := time.Parse("2006-01-02", raw)
		if dayErr != nil {
			return nil, err
		}
		ts = day
	}
	return &ts, nil
}
