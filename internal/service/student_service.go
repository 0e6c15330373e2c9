package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type studentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []*models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type behaviorCatalog interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Behavior, error)
}

type classGetter interface {
	GetByID(ctx context.Context, id string) (*models.Class, error)
}

// StudentService handles roster workflows.
type StudentService struct {
	repo      studentRepository
	classes   classGetter
	behaviors behaviorCatalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, classes classGetter, behaviors behaviorCatalog, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, behaviors: behaviors, validator: validate, logger: logger}
}

// StudentRequest describes create and update payloads.
type StudentRequest struct {
	FirstName        string                `json:"first_name" validate:"required"`
	LastName         string                `json:"last_name" validate:"required"`
	Grade            *string               `json:"grade"`
	ParentContacts   models.ParentContacts `json:"parent_contacts" validate:"omitempty,dive"`
	FocusBehaviorIDs []string              `json:"focus_behavior_ids"`
}

// ListByClass returns the roster of a class owned by the teacher.
func (s *StudentService) ListByClass(ctx context.Context, teacherID, classID string) ([]models.Student, error) {
	if err := s.ensureClassOwned(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student, verifying the containing class belongs to the
// teacher.
func (s *StudentService) Get(ctx context.Context, teacherID, id string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := s.ensureClassOwned(ctx, teacherID, student.ClassID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create adds a student to the class roster.
func (s *StudentService) Create(ctx context.Context, teacherID, classID string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.ensureClassOwned(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	if err := s.ensureKnownBehaviors(ctx, teacherID, req.FocusBehaviorIDs); err != nil {
		return nil, err
	}

	student := &models.Student{
		ClassID:          classID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Grade:            req.Grade,
		ParentContacts:   req.ParentContacts,
		FocusBehaviorIDs: pq.StringArray(req.FocusBehaviorIDs),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// BulkImport adds every extracted roster name to the class in one shot.
// Names only; contacts and grades are filled in later by hand.
func (s *StudentService) BulkImport(ctx context.Context, teacherID, classID string, names []dto.RosterStudent) ([]models.Student, error) {
	if len(names) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students to import")
	}
	if err := s.ensureClassOwned(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	students := make([]*models.Student, 0, len(names))
	for _, name := range names {
		if name.FirstName == "" && name.LastName == "" {
			continue
		}
		students = append(students, &models.Student{
			ClassID:   classID,
			FirstName: name.FirstName,
			LastName:  name.LastName,
		})
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students to import")
	}
	if err := s.repo.CreateBatch(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}

	out := make([]models.Student, len(students))
	for i, st := range students {
		out[i] = *st
	}
	return out, nil
}

// Update modifies a student's details and focus behaviors.
func (s *StudentService) Update(ctx context.Context, teacherID, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	student, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureKnownBehaviors(ctx, teacherID, req.FocusBehaviorIDs); err != nil {
		return nil, err
	}

	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Grade = req.Grade
	student.ParentContacts = req.ParentContacts
	student.FocusBehaviorIDs = pq.StringArray(req.FocusBehaviorIDs)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student from the roster. Logged incidents stay.
func (s *StudentService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) ensureClassOwned(ctx context.Context, teacherID, classID string) error {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class == nil || class.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return nil
}

// ensureKnownBehaviors rejects focus ids pointing outside the teacher's
// catalog; stale references never get written.
func (s *StudentService) ensureKnownBehaviors(ctx context.Context, teacherID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	catalog, err := s.behaviors.ListByTeacher(ctx, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behaviors")
	}
	known := make(map[string]struct{}, len(catalog))
	for _, b := range catalog {
		known[b.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown focus behavior id "+id)
		}
	}
	return nil
}
