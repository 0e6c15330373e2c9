package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type teacherRepository interface {
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	Upsert(ctx context.Context, teacher *models.Teacher) error
}

// TeacherService maintains teacher profiles derived from identity claims.
type TeacherService struct {
	repo   teacherRepository
	logger *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, logger: logger}
}

// EnsureProfile upserts the profile for the authenticated subject so a row
// exists before the first class or behavior is created.
func (s *TeacherService) EnsureProfile(ctx context.Context, claims models.IdentityClaims) (*models.Teacher, error) {
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing subject")
	}
	teacher := &models.Teacher{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save teacher profile")
	}
	return teacher, nil
}

// Get returns the stored profile.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return teacher, nil
}
