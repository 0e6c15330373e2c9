package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// BehaviorHandler wires the behavior catalog to HTTP routes.
type BehaviorHandler struct {
	behaviors *service.BehaviorService
}

// NewBehaviorHandler constructs a new BehaviorHandler.
func NewBehaviorHandler(behaviors *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behaviors: behaviors}
}

// List godoc
// @Summary List the teacher's behavior catalog
// @Tags Behaviors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /behaviors [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	behaviors, err := h.behaviors.List(c.Request.Context(), middleware.TeacherID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, behaviors, nil)
}

// Create godoc
// @Summary Create a behavior
// @Tags Behaviors
// @Accept json
// @Produce json
// @Param find_or_create query bool false "Reuse an existing behavior with the same name and polarity"
// @Param payload body service.BehaviorRequest true "Behavior payload"
// @Success 201 {object} response.Envelope
// @Router /behaviors [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	var req service.BehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid behavior payload"))
		return
	}

	teacherID := middleware.TeacherID(c)
	if c.Query("find_or_create") == "true" {
		behavior, err := h.behaviors.FindOrCreate(c.Request.Context(), teacherID, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, behavior, nil)
		return
	}

	behavior, err := h.behaviors.Create(c.Request.Context(), teacherID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, behavior)
}

// Update godoc
// @Summary Rename or recolor a behavior
// @Tags Behaviors
// @Accept json
// @Produce json
// @Param id path string true "Behavior ID"
// @Param payload body service.BehaviorUpdateRequest true "Behavior payload"
// @Success 200 {object} response.Envelope
// @Router /behaviors/{id} [put]
func (h *BehaviorHandler) Update(c *gin.Context) {
	var req service.BehaviorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid behavior payload"))
		return
	}
	behavior, err := h.behaviors.Update(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, behavior, nil)
}

// Delete godoc
// @Summary Delete a behavior
// @Tags Behaviors
// @Param id path string true "Behavior ID"
// @Success 204
// @Router /behaviors/{id} [delete]
func (h *BehaviorHandler) Delete(c *gin.Context) {
	if err := h.behaviors.Delete(c.Request.Context(), middleware.TeacherID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
