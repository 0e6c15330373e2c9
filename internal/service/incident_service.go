package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/pkg/audio"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type incidentRepository interface {
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error)
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id string) error
}

type behaviorGetter interface {
	GetByID(ctx context.Context, id string) (*models.Behavior, error)
}

type studentGetter interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

type analyticsInvalidator interface {
	InvalidateClass(ctx context.Context, classID string)
}

// IncidentService appends to and prunes the incident log. Each successful
// log names the audio cue the client should play; cue failures client-side
// are cosmetic and never reported back.
type IncidentService struct {
	repo      incidentRepository
	behaviors behaviorGetter
	students  studentGetter
	cache     analyticsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIncidentService constructs the service.
func NewIncidentService(repo incidentRepository, behaviors behaviorGetter, students studentGetter, cache analyticsInvalidator, validate *validator.Validate, logger *zap.Logger) *IncidentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{repo: repo, behaviors: behaviors, students: students, cache: cache, validator: validate, logger: logger}
}

// LogIncidentRequest describes the log payload.
type LogIncidentRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	BehaviorID string `json:"behavior_id" validate:"required"`
	Notes      string `json:"notes"`
}

// LoggedIncident pairs the stored incident with the cue to play.
type LoggedIncident struct {
	Incident models.Incident `json:"incident"`
	Cue      audio.Cue       `json:"cue"`
}

// Log appends one observation. The timestamp is server-assigned and
// immutable; whitespace-only notes are stored as absent.
func (s *IncidentService) Log(ctx context.Context, teacherID string, req LogIncidentRequest) (*LoggedIncident, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	behavior, err := s.behaviors.GetByID(ctx, req.BehaviorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior")
	}
	if behavior == nil || behavior.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior not found")
	}

	incident := &models.Incident{
		StudentID:  req.StudentID,
		ClassID:    student.ClassID,
		TeacherID:  teacherID,
		BehaviorID: req.BehaviorID,
		Timestamp:  time.Now().UTC(),
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		incident.Notes = &notes
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log incident")
	}
	s.invalidate(ctx, student.ClassID)

	cue := audio.CueNegative
	if behavior.Type == models.BehaviorPositive {
		cue = audio.CuePositive
	}
	return &LoggedIncident{Incident: *incident, Cue: cue}, nil
}

// List returns incidents for a student or class with optional date bounds.
func (s *IncidentService) List(ctx context.Context, teacherID string, filter models.IncidentFilter) ([]models.Incident, error) {
	if filter.StudentID == "" && filter.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id or class_id is required")
	}
	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incidents")
	}
	out := incidents[:0]
	for _, incident := range incidents {
		if incident.TeacherID == teacherID {
			out = append(out, incident)
		}
	}
	return out, nil
}

// Delete hard-deletes one incident, undoing a mistaken log.
func (s *IncidentService) Delete(ctx context.Context, teacherID, id string) error {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incident")
	}
	if incident == nil || incident.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrNotFound, "incident not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete incident")
	}
	s.invalidate(ctx, incident.ClassID)
	return nil
}

func (s *IncidentService) invalidate(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateClass(ctx, classID)
}
