package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]*models.Student
	batches  int
}

func (m *mockStudentRepo) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "generated"
	}
	if m.students == nil {
		m.students = make(map[string]*models.Student)
	}
	cp := *student
	m.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) CreateBatch(ctx context.Context, students []*models.Student) error {
	m.batches++
	for i, s := range students {
		if s.ID == "" {
			s.ID = "batch-" + string(rune('a'+i))
		}
		cp := *s
		if m.students == nil {
			m.students = make(map[string]*models.Student)
		}
		m.students[s.ID] = &cp
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	cp := *student
	m.students[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	return nil
}

type mockClassGetter struct {
	classes map[string]*models.Class
}

func (m *mockClassGetter) GetByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func newStudentFixture() (*StudentService, *mockStudentRepo) {
	repo := &mockStudentRepo{}
	classes := &mockClassGetter{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1", Name: "Period 3"},
	}}
	behaviors := &mockBehaviorRepo{behaviors: map[string]*models.Behavior{
		"b1": {ID: "b1", TeacherID: "t1", Name: "Calling Out", Type: models.BehaviorNegative},
	}}
	return NewStudentService(repo, classes, behaviors, nil, nil), repo
}

func TestStudentCreateRejectsUnknownFocusBehavior(t *testing.T) {
	svc, repo := newStudentFixture()

	_, err := svc.Create(context.Background(), "t1", "c1", StudentRequest{
		FirstName:        "Sam",
		LastName:         "Smith",
		FocusBehaviorIDs: []string{"b1", "ghost"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
	assert.Empty(t, repo.students)
}

func TestStudentCreateAcceptsCatalogFocusBehaviors(t *testing.T) {
	svc, repo := newStudentFixture()

	student, err := svc.Create(context.Background(), "t1", "c1", StudentRequest{
		FirstName:        "Sam",
		LastName:         "Smith",
		FocusBehaviorIDs: []string{"b1"},
	})
	require.NoError(t, err)
	assert.Len(t, repo.students, 1)
	assert.Equal(t, "c1", student.ClassID)
}

func TestStudentCreateForeignClassIsNotFound(t *testing.T) {
	svc, _ := newStudentFixture()

	_, err := svc.Create(context.Background(), "t2", "c1", StudentRequest{FirstName: "Sam", LastName: "Smith"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBulkImportSkipsBlankNames(t *testing.T) {
	svc, repo := newStudentFixture()

	students, err := svc.BulkImport(context.Background(), "t1", "c1", []dto.RosterStudent{
		{FirstName: "Jane", LastName: "Doe"},
		{},
		{FirstName: "John", LastName: "Smith"},
	})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, repo.batches)
}

func TestBulkImportEmptyRosterRejected(t *testing.T) {
	svc, repo := newStudentFixture()

	_, err := svc.BulkImport(context.Background(), "t1", "c1", nil)
	require.Error(t, err)
	assert.Zero(t, repo.batches)
}
