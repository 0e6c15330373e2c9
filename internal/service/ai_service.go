package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type textGenerator interface {
	Configured() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// AIService proxies the three generative workflows: IEP analysis, parent
// report drafting, and roster-photo extraction. Validation failures are
// rejected before any upstream call is made.
type AIService struct {
	generator textGenerator
	logger    *zap.Logger
}

// NewAIService constructs the service.
func NewAIService(generator textGenerator, logger *zap.Logger) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIService{generator: generator, logger: logger}
}

const analyzeIEPPrompt = `Analyze the following IEP (Individualized Education Program) or student support text.
Extract specific, observable, and actionable behaviors that a teacher should track.

Return ONLY a JSON object with this exact structure, no markdown formatting:
{
    "positive": ["behavior 1", "behavior 2", ...],
    "negative": ["behavior 1", "behavior 2", ...]
}

Limit to the top 3-5 most important behaviors for each category.
Keep descriptions concise (under 10 words).

Text to analyze:
%q`

// AnalyzeIEP extracts suggested behaviors from support-plan text.
func (s *AIService) AnalyzeIEP(ctx context.Context, text string) (*dto.IEPAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text is required")
	}
	if err := s.ensureConfigured(); err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateText(ctx, fmt.Sprintf(analyzeIEPPrompt, text))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAIUpstream.Code, appErrors.ErrAIUpstream.Status, appErrors.ErrAIUpstream.Message)
	}

	var analysis dto.IEPAnalysis
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &analysis); err != nil {
		s.logger.Error("unparseable IEP analysis from model", zap.String("raw", raw))
		return nil, appErrors.Clone(appErrors.ErrAIParse, "failed to parse AI response")
	}
	return &analysis, nil
}

// GenerateReport drafts a parent-facing progress email from the supplied
// incident summary and behavior labels.
func (s *AIService) GenerateReport(ctx context.Context, req dto.GenerateReportRequest) (string, error) {
	if strings.TrimSpace(req.StudentName) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student name is required")
	}
	if err := s.ensureConfigured(); err != nil {
		return "", err
	}

	report, err := s.generator.GenerateText(ctx, buildReportPrompt(req))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAIUpstream.Code, appErrors.ErrAIUpstream.Status, appErrors.ErrAIUpstream.Message)
	}
	return report, nil
}

const processRosterPrompt = `Analyze this image of a class roster.
Extract all student names found in the list.
Return ONLY a valid JSON array of objects, where each object has "firstName" and "lastName" properties.
Example: [{"firstName": "John", "lastName": "Doe"}, {"firstName": "Jane", "lastName": "Smith"}]
Ignore any headers, footers, dates, or other text that is not a student name.
If a name is "Last, First" format, parse it correctly.`

// ProcessRoster extracts student names from a roster photo.
func (s *AIService) ProcessRoster(ctx context.Context, mimeType string, image []byte) ([]dto.RosterStudent, error) {
	if len(image) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no file uploaded")
	}
	if err := s.ensureConfigured(); err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateFromImage(ctx, processRosterPrompt, mimeType, image)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAIUpstream.Code, appErrors.ErrAIUpstream.Status, appErrors.ErrAIUpstream.Message)
	}

	var students []dto.RosterStudent
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &students); err != nil {
		s.logger.Error("unparseable roster extraction from model", zap.String("raw", raw))
		return nil, appErrors.Clone(appErrors.ErrAIParse, "failed to parse student names from the image")
	}
	return students, nil
}

func (s *AIService) ensureConfigured() error {
	if s.generator == nil || !s.generator.Configured() {
		return appErrors.Clone(appErrors.ErrAIConfiguration, "")
	}
	return nil
}

func buildReportPrompt(req dto.GenerateReportRequest) string {
	incidents := string(req.Incidents)
	if incidents == "" {
		incidents = "{}"
	}
	behaviors, err := json.MarshalIndent(req.Behaviors, "", "  ")
	if err != nil {
		behaviors = []byte("{}")
	}
	notes := req.CustomNotes
	if notes == "" {
		notes = "None provided."
	}

	var focus string
	if req.FocusedBehaviorID != "" {
		if name, ok := req.Behaviors[req.FocusedBehaviorID]; ok {
			focus = fmt.Sprintf("IMPORTANT: The teacher has specifically requested that this email focus primarily on the behavior %q. While you can mention other trends briefly, the main topic should be %q and the data related to it.\n\n", name, name)
		}
	}

	return fmt.Sprintf(`You are an expert educational assistant helping a teacher write a progress report email to a parent.

Student: %s
Date Range: %s

Data Summary:
%s

Available Behaviors Map (ID to Label):
%s

Teacher's Custom Notes/Context:
%q

%sTask:
Write a professional, empathetic, and data-informed email to the student's parents.

Guidelines:
1. Subject Line: Create a clear subject line.
2. Tone: Professional, supportive, and objective.
3. Structure:
   - Friendly opening.
   - Summary of the data (mention specific trends, positive or negative). Use the behavior labels, not IDs.
   - Incorporate the teacher's custom notes if provided.
   - Specific actionable next steps or invitation for discussion.
   - Professional closing.
4. Do NOT use placeholders like "[Parent Name]" - use generic greetings like "Dear Family" or "Dear Parents/Guardians".
5. Format the output as a plain text email body that is ready to copy and paste.`,
		req.StudentName, req.DateRange, incidents, behaviors, notes, focus)
}

// stripCodeFences removes markdown code-fence markers the model sometimes
// wraps around JSON output.
func stripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
