package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/service"
)

type generatorMock struct {
	configured bool
	textOut    string
	textErr    error
	imageOut   string

	textCalls  int
	imageCalls int
}

func (m *generatorMock) Configured() bool { return m.configured }

func (m *generatorMock) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.textCalls++
	return m.textOut, m.textErr
}

func (m *generatorMock) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	m.imageCalls++
	return m.imageOut, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newAIHandler(gen *generatorMock) *AIHandler {
	return NewAIHandler(service.NewAIService(gen, nil))
}

func TestAnalyzeIEPEmptyTextReturns400WithoutModelCall(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{configured: true}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/analyze-iep", []byte(`{"text":""}`))
	handler.AnalyzeIEP(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.textCalls)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestAnalyzeIEPReturnsFlatAnalysisBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{
		configured: true,
		textOut:    "```json\n{\"positive\":[\"Raises hand\"],\"negative\":[\"Calling out\"]}\n```",
	}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/analyze-iep", []byte(`{"text":"iep text"}`))
	handler.AnalyzeIEP(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Positive []string `json:"positive"`
		Negative []string `json:"negative"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Raises hand"}, body.Positive)
	assert.Equal(t, []string{"Calling out"}, body.Negative)
}

func TestAnalyzeIEPMalformedModelOutputIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{configured: true, textOut: "not json at all"}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/analyze-iep", []byte(`{"text":"iep text"}`))
	handler.AnalyzeIEP(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "failed to parse AI response", body["error"])
}

func TestGenerateReportMissingStudentNameIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{configured: true, textOut: "Dear Family, ..."}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/generate-report", []byte(`{"dateRange":"Mar"}`))
	handler.GenerateReport(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.textCalls)
}

func TestGenerateReportReturnsReportBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{configured: true, textOut: "Dear Family, good progress this month."}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/generate-report", []byte(`{"studentName":"Sam Smith","dateRange":"Mar 1 - Mar 31","incidents":{"total":3},"behaviors":{"b1":"Calling Out"}}`))
	handler.GenerateReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Dear Family, good progress this month.", body["report"])
}

func TestProcessRosterMissingFileIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{configured: true}
	handler := newAIHandler(gen)

	c, w := newGinContext(http.MethodPost, "/api/process-roster", nil)
	handler.ProcessRoster(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.imageCalls)
}

func TestProcessRosterReturnsStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &generatorMock{
		configured: true,
		imageOut:   `[{"firstName":"Jane","lastName":"Doe"}]`,
	}
	handler := newAIHandler(gen)

	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)
	part, err := form.CreateFormFile("file", "roster.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	require.NoError(t, form.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/process-roster", buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.Request = req

	handler.ProcessRoster(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Students []struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"students"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Students, 1)
	assert.Equal(t, "Jane", body.Students[0].FirstName)
}
