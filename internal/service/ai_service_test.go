package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/dto"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type mockGenerator struct {
	configured bool
	textOut    string
	textErr    error
	imageOut   string
	imageErr   error

	textCalls  int
	imageCalls int
	lastPrompt string
}

func (m *mockGenerator) Configured() bool { return m.configured }

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.textCalls++
	m.lastPrompt = prompt
	return m.textOut, m.textErr
}

func (m *mockGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	m.imageCalls++
	m.lastPrompt = prompt
	return m.imageOut, m.imageErr
}

func TestAnalyzeIEPEmptyTextRejectedBeforeModelCall(t *testing.T) {
	gen := &mockGenerator{configured: true}
	svc := NewAIService(gen, nil)

	_, err := svc.AnalyzeIEP(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
	assert.Zero(t, gen.textCalls)
}

func TestAnalyzeIEPParsesFencedAndBareJSONIdentically(t *testing.T) {
	const body = `{"positive": ["Raises hand"], "negative": ["Calling out"]}`
	for name, out := range map[string]string{
		"bare":   body,
		"fenced": "```json\n" + body + "\n```",
	} {
		gen := &mockGenerator{configured: true, textOut: out}
		svc := NewAIService(gen, nil)

		analysis, err := svc.AnalyzeIEP(context.Background(), "student struggles with impulse control")
		require.NoError(t, err, name)
		assert.Equal(t, []string{"Raises hand"}, analysis.Positive, name)
		assert.Equal(t, []string{"Calling out"}, analysis.Negative, name)
	}
}

func TestAnalyzeIEPMalformedModelOutputYieldsParseError(t *testing.T) {
	gen := &mockGenerator{configured: true, textOut: "Sure! Here are some behaviors: ..."}
	svc := NewAIService(gen, nil)

	analysis, err := svc.AnalyzeIEP(context.Background(), "some text")
	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.Equal(t, appErrors.ErrAIParse.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestAnalyzeIEPUnconfiguredKeyIs500(t *testing.T) {
	gen := &mockGenerator{configured: false}
	svc := NewAIService(gen, nil)

	_, err := svc.AnalyzeIEP(context.Background(), "some text")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIConfiguration.Code, appErrors.FromError(err).Code)
	assert.Zero(t, gen.textCalls)
}

func TestGenerateReportRequiresStudentName(t *testing.T) {
	gen := &mockGenerator{configured: true, textOut: "Dear Family, ..."}
	svc := NewAIService(gen, nil)

	_, err := svc.GenerateReport(context.Background(), dto.GenerateReportRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
	assert.Zero(t, gen.textCalls)
}

func TestGenerateReportEmbedsFocusedBehaviorLabel(t *testing.T) {
	gen := &mockGenerator{configured: true, textOut: "Dear Family, ..."}
	svc := NewAIService(gen, nil)

	report, err := svc.GenerateReport(context.Background(), dto.GenerateReportRequest{
		StudentName:       "Sam Smith",
		DateRange:         "Mar 1 - Mar 31",
		Behaviors:         map[string]string{"b1": "Calling Out"},
		FocusedBehaviorID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear Family, ...", report)
	assert.Contains(t, gen.lastPrompt, `"Calling Out"`)
	assert.Contains(t, gen.lastPrompt, "Sam Smith")
}

func TestGenerateReportUpstreamFailureIs500(t *testing.T) {
	gen := &mockGenerator{configured: true, textErr: errors.New("rate limited")}
	svc := NewAIService(gen, nil)

	_, err := svc.GenerateReport(context.Background(), dto.GenerateReportRequest{StudentName: "Sam"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAIUpstream.Code, appErrors.FromError(err).Code)
}

func TestProcessRosterRequiresFile(t *testing.T) {
	gen := &mockGenerator{configured: true}
	svc := NewAIService(gen, nil)

	_, err := svc.ProcessRoster(context.Background(), "image/png", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
	assert.Zero(t, gen.imageCalls)
}

func TestProcessRosterParsesExtractedNames(t *testing.T) {
	gen := &mockGenerator{
		configured: true,
		imageOut:   "```json\n[{\"firstName\":\"Jane\",\"lastName\":\"Doe\"}]\n```",
	}
	svc := NewAIService(gen, nil)

	students, err := svc.ProcessRoster(context.Background(), "image/png", []byte{0x89})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Jane", students[0].FirstName)
	assert.Equal(t, "Doe", students[0].LastName)
}

func TestProcessRosterMalformedOutputReturnsNoPartialData(t *testing.T) {
	gen := &mockGenerator{configured: true, imageOut: "[{\"firstName\": \"Jane\""}
	svc := NewAIService(gen, nil)

	students, err := svc.ProcessRoster(context.Background(), "image/png", []byte{0x89})
	require.Error(t, err)
	assert.Nil(t, students)
	assert.Equal(t, appErrors.ErrAIParse.Code, appErrors.FromError(err).Code)
}
