package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type mockBehaviorRepo struct {
	behaviors map[string]*models.Behavior
	created   int
}

func (m *mockBehaviorRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Behavior, error) {
	var out []models.Behavior
	for _, b := range m.behaviors {
		if b.TeacherID == teacherID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBehaviorRepo) GetByID(ctx context.Context, id string) (*models.Behavior, error) {
	if b, ok := m.behaviors[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *mockBehaviorRepo) FindByNameAndType(ctx context.Context, teacherID, name string, behaviorType models.BehaviorType) (*models.Behavior, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, b := range m.behaviors {
		if b.TeacherID == teacherID && b.Type == behaviorType && strings.ToLower(strings.TrimSpace(b.Name)) == needle {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBehaviorRepo) Create(ctx context.Context, behavior *models.Behavior) error {
	if behavior.ID == "" {
		behavior.ID = "generated"
	}
	if m.behaviors == nil {
		m.behaviors = make(map[string]*models.Behavior)
	}
	cp := *behavior
	m.behaviors[behavior.ID] = &cp
	m.created++
	return nil
}

func (m *mockBehaviorRepo) Update(ctx context.Context, behavior *models.Behavior) error {
	cp := *behavior
	m.behaviors[behavior.ID] = &cp
	return nil
}

func (m *mockBehaviorRepo) Delete(ctx context.Context, id string) error {
	delete(m.behaviors, id)
	return nil
}

func TestBehaviorCreateRejectsUnknownType(t *testing.T) {
	svc := NewBehaviorService(&mockBehaviorRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "t1", BehaviorRequest{Name: "Shouting", Type: "loud"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
}

func TestFindOrCreateMatchesCaseInsensitively(t *testing.T) {
	repo := &mockBehaviorRepo{behaviors: map[string]*models.Behavior{
		"b1": {ID: "b1", TeacherID: "t1", Name: "Calling Out", Type: models.BehaviorNegative},
	}}
	svc := NewBehaviorService(repo, nil, nil)

	found, err := svc.FindOrCreate(context.Background(), "t1", BehaviorRequest{Name: "  calling out ", Type: "negative"})
	require.NoError(t, err)
	assert.Equal(t, "b1", found.ID)
	assert.Zero(t, repo.created)
}

func TestFindOrCreateDifferentPolarityCreatesNew(t *testing.T) {
	repo := &mockBehaviorRepo{behaviors: map[string]*models.Behavior{
		"b1": {ID: "b1", TeacherID: "t1", Name: "Participation", Type: models.BehaviorPositive},
	}}
	svc := NewBehaviorService(repo, nil, nil)

	created, err := svc.FindOrCreate(context.Background(), "t1", BehaviorRequest{Name: "Participation", Type: "negative"})
	require.NoError(t, err)
	assert.NotEqual(t, "b1", created.ID)
	assert.Equal(t, 1, repo.created)
}

func TestBehaviorDeleteScopedToOwner(t *testing.T) {
	repo := &mockBehaviorRepo{behaviors: map[string]*models.Behavior{
		"b1": {ID: "b1", TeacherID: "t1", Name: "Calling Out", Type: models.BehaviorNegative},
	}}
	svc := NewBehaviorService(repo, nil, nil)

	err := svc.Delete(context.Background(), "t2", "b1")
	require.Error(t, err)
	assert.Len(t, repo.behaviors, 1)

	require.NoError(t, svc.Delete(context.Background(), "t1", "b1"))
	assert.Empty(t, repo.behaviors)
}
