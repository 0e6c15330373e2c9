package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// FocusListHandler wires focus lists to HTTP routes.
type FocusListHandler struct {
	lists *service.FocusListService
}

// NewFocusListHandler constructs a new FocusListHandler.
func NewFocusListHandler(lists *service.FocusListService) *FocusListHandler {
	return &FocusListHandler{lists: lists}
}

type focusMemberRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

type focusOrderRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required"`
}

// Get godoc
// @Summary Get the focus list for a class
// @Tags FocusLists
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/focus-list [get]
func (h *FocusListHandler) Get(c *gin.Context) {
	list, err := h.lists.Get(c.Request.Context(), middleware.TeacherID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Add godoc
// @Summary Add a student to the focus list
// @Tags FocusLists
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body focusMemberRequest true "Student reference"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/focus-list/members [post]
func (h *FocusListHandler) Add(c *gin.Context) {
	var req focusMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id is required"))
		return
	}
	list, err := h.lists.Add(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Remove godoc
// @Summary Remove a student from the focus list
// @Tags FocusLists
// @Produce json
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/focus-list/members/{studentId} [delete]
func (h *FocusListHandler) Remove(c *gin.Context) {
	list, err := h.lists.Remove(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Reorder godoc
// @Summary Reorder the focus list
// @Tags FocusLists
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body focusOrderRequest true "New ordering"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/focus-list/order [put]
func (h *FocusListHandler) Reorder(c *gin.Context) {
	var req focusOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_ids is required"))
		return
	}
	list, err := h.lists.Reorder(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), req.StudentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}
