package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/service"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

// AIHandler exposes the three generative proxy endpoints. Unlike the rest of
// the API these return flat JSON bodies ({positive, negative}, {report},
// {students}) with errors as {error}, matching what the web client consumes.
type AIHandler struct {
	ai *service.AIService
}

// NewAIHandler constructs a new AIHandler.
func NewAIHandler(ai *service.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

func aiError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message})
}

// AnalyzeIEP godoc
// @Summary Extract trackable behaviors from IEP text
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeIEPRequest true "IEP text"
// @Success 200 {object} dto.IEPAnalysis
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /analyze-iep [post]
func (h *AIHandler) AnalyzeIEP(c *gin.Context) {
	var req dto.AnalyzeIEPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	analysis, err := h.ai.AnalyzeIEP(c.Request.Context(), req.Text)
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GenerateReport godoc
// @Summary Draft a parent progress email
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.GenerateReportRequest true "Report inputs"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /generate-report [post]
func (h *AIHandler) GenerateReport(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student name is required"})
		return
	}
	report, err := h.ai.GenerateReport(c.Request.Context(), req)
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReportResponse{Report: report})
}

// ProcessRoster godoc
// @Summary Extract student names from a roster photo
// @Tags AI
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster image"
// @Success 200 {object} dto.RosterResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /process-roster [post]
func (h *AIHandler) ProcessRoster(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close() //nolint:errcheck

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}

	students, err := h.ai.ProcessRoster(c.Request.Context(), fileHeader.Header.Get("Content-Type"), image)
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RosterResponse{Students: students})
}
