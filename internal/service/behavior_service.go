package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type behaviorRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Behavior, error)
	GetByID(ctx context.Context, id string) (*models.Behavior, error)
	FindByNameAndType(ctx context.Context, teacherID, name string, behaviorType models.BehaviorType) (*models.Behavior, error)
	Create(ctx context.Context, behavior *models.Behavior) error
	Update(ctx context.Context, behavior *models.Behavior) error
	Delete(ctx context.Context, id string) error
}

// BehaviorService manages the teacher's behavior catalog.
type BehaviorService struct {
	repo      behaviorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorService constructs the service.
func NewBehaviorService(repo behaviorRepository, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &BehaviorService{repo: repo, validator: validate, logger: logger}
	svc.validator.RegisterValidation("behavior_type", func(fl validator.FieldLevel) bool {
		return models.BehaviorType(fl.Field().String()).Valid()
	})
	return svc
}

// BehaviorRequest describes create payloads. Type is fixed at creation.
type BehaviorRequest struct {
	Name        string  `json:"name" validate:"required"`
	Type        string  `json:"type" validate:"required,behavior_type"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// BehaviorUpdateRequest describes update payloads; polarity cannot change.
type BehaviorUpdateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// List returns the teacher's catalog.
func (s *BehaviorService) List(ctx context.Context, teacherID string) ([]models.Behavior, error) {
	behaviors, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behaviors")
	}
	return behaviors, nil
}

// Get returns one behavior owned by the teacher.
func (s *BehaviorService) Get(ctx context.Context, teacherID, id string) (*models.Behavior, error) {
	behavior, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior")
	}
	if behavior == nil || behavior.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior not found")
	}
	return behavior, nil
}

// Create registers a new behavior.
func (s *BehaviorService) Create(ctx context.Context, teacherID string, req BehaviorRequest) (*models.Behavior, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	behavior := &models.Behavior{
		TeacherID:   teacherID,
		Name:        strings.TrimSpace(req.Name),
		Type:        models.BehaviorType(req.Type),
		Description: req.Description,
		Color:       req.Color,
	}
	if err := s.repo.Create(ctx, behavior); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create behavior")
	}
	return behavior, nil
}

// FindOrCreate reuses an existing behavior matching the trimmed name
// case-insensitively within the same polarity, creating one otherwise. Used
// when adopting AI-suggested behaviors so repeated suggestions never pile up
// as duplicates.
func (s *BehaviorService) FindOrCreate(ctx context.Context, teacherID string, req BehaviorRequest) (*models.Behavior, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.repo.FindByNameAndType(ctx, teacherID, req.Name, models.BehaviorType(req.Type))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up behavior")
	}
	if existing != nil {
		return existing, nil
	}
	return s.Create(ctx, teacherID, req)
}

// Update renames or recolors a behavior.
func (s *BehaviorService) Update(ctx context.Context, teacherID, id string, req BehaviorUpdateRequest) (*models.Behavior, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	behavior, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	behavior.Name = strings.TrimSpace(req.Name)
	behavior.Description = req.Description
	behavior.Color = req.Color
	if err := s.repo.Update(ctx, behavior); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update behavior")
	}
	return behavior, nil
}

// Delete removes a behavior from the catalog. Incidents keep their behavior
// id and show up as unresolved in analytics.
func (s *BehaviorService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete behavior")
	}
	return nil
}
