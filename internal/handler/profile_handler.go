package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// ProfileHandler exposes the authenticated teacher's profile.
type ProfileHandler struct {
	teachers *service.TeacherService
}

// NewProfileHandler constructs a new ProfileHandler.
func NewProfileHandler(teachers *service.TeacherService) *ProfileHandler {
	return &ProfileHandler{teachers: teachers}
}

// Get godoc
// @Summary Get (and lazily create) the teacher profile behind the token
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	teacher, err := h.teachers.EnsureProfile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}
