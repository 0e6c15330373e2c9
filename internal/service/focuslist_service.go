package service

import (
	"context"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type focusListRepository interface {
	GetLatest(ctx context.Context, teacherID, classID string) (*models.FocusList, error)
	Save(ctx context.Context, list *models.FocusList) error
}

// FocusListService manages the ordered watch list per class. Add and remove
// are idempotent; both always write the full ordered list.
type FocusListService struct {
	repo     focusListRepository
	students studentGetter
	logger   *zap.Logger
}

// NewFocusListService constructs the service.
func NewFocusListService(repo focusListRepository, students studentGetter, logger *zap.Logger) *FocusListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FocusListService{repo: repo, students: students, logger: logger}
}

// Get returns the current list for the class, an empty one when none exists.
func (s *FocusListService) Get(ctx context.Context, teacherID, classID string) (*models.FocusList, error) {
	list, err := s.repo.GetLatest(ctx, teacherID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load focus list")
	}
	if list == nil {
		list = &models.FocusList{TeacherID: teacherID, ClassID: classID, StudentIDs: pq.StringArray{}}
	}
	return list, nil
}

// Add appends the student unless already present.
func (s *FocusListService) Add(ctx context.Context, teacherID, classID, studentID string) (*models.FocusList, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil || student.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found in class")
	}

	list, err := s.Get(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	for _, id := range list.StudentIDs {
		if id == studentID {
			return list, nil
		}
	}
	list.StudentIDs = append(list.StudentIDs, studentID)
	return s.save(ctx, list)
}

// Remove drops the student if present; removing an absent id is a no-op.
func (s *FocusListService) Remove(ctx context.Context, teacherID, classID, studentID string) (*models.FocusList, error) {
	list, err := s.Get(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	kept := list.StudentIDs[:0]
	found := false
	for _, id := range list.StudentIDs {
		if id == studentID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return list, nil
	}
	list.StudentIDs = kept
	return s.save(ctx, list)
}

// Reorder replaces the list with the supplied ordering. The new list must be
// a permutation of the current membership.
func (s *FocusListService) Reorder(ctx context.Context, teacherID, classID string, studentIDs []string) (*models.FocusList, error) {
	list, err := s.Get(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	if len(studentIDs) != len(list.StudentIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reorder must keep the same members")
	}
	current := make(map[string]struct{}, len(list.StudentIDs))
	for _, id := range list.StudentIDs {
		current[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		if _, ok := current[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reorder must keep the same members")
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate student id in reorder")
		}
		seen[id] = struct{}{}
	}
	list.StudentIDs = pq.StringArray(studentIDs)
	return s.save(ctx, list)
}

func (s *FocusListService) save(ctx context.Context, list *models.FocusList) (*models.FocusList, error) {
	if err := s.repo.Save(ctx, list); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save focus list")
	}
	return list, nil
}
