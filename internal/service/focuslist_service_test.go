package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type mockFocusListRepo struct {
	list  *models.FocusList
	saves int
}

func (m *mockFocusListRepo) GetLatest(ctx context.Context, teacherID, classID string) (*models.FocusList, error) {
	if m.list == nil {
		return nil, nil
	}
	cp := *m.list
	return &cp, nil
}

func (m *mockFocusListRepo) Save(ctx context.Context, list *models.FocusList) error {
	m.saves++
	if list.ID == "" {
		list.ID = "f1"
	}
	cp := *list
	m.list = &cp
	return nil
}

func newFocusFixture(initial []string) (*FocusListService, *mockFocusListRepo) {
	repo := &mockFocusListRepo{}
	if initial != nil {
		repo.list = &models.FocusList{ID: "f1", TeacherID: "t1", ClassID: "c1", StudentIDs: pq.StringArray(initial)}
	}
	students := &mockStudentGetter{students: map[string]*models.Student{
		"s1": {ID: "s1", ClassID: "c1"},
		"s2": {ID: "s2", ClassID: "c1"},
		"s3": {ID: "s3", ClassID: "other"},
	}}
	return NewFocusListService(repo, students, nil), repo
}

func TestFocusListAddIsIdempotent(t *testing.T) {
	svc, repo := newFocusFixture([]string{"s1"})

	list, err := svc.Add(context.Background(), "t1", "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"s1"}, list.StudentIDs)
	assert.Zero(t, repo.saves, "duplicate add should not write")

	list, err = svc.Add(context.Background(), "t1", "c1", "s2")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"s1", "s2"}, list.StudentIDs)
	assert.Equal(t, 1, repo.saves)
}

func TestFocusListAddRejectsStudentFromAnotherClass(t *testing.T) {
	svc, _ := newFocusFixture(nil)

	_, err := svc.Add(context.Background(), "t1", "c1", "s3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFocusListRemoveAbsentIsNoOp(t *testing.T) {
	svc, repo := newFocusFixture([]string{"s1"})

	list, err := svc.Remove(context.Background(), "t1", "c1", "s2")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"s1"}, list.StudentIDs)
	assert.Zero(t, repo.saves)

	list, err = svc.Remove(context.Background(), "t1", "c1", "s1")
	require.NoError(t, err)
	assert.Empty(t, list.StudentIDs)
	assert.Equal(t, 1, repo.saves)
}

func TestFocusListGetReturnsEmptyListWhenNoneStored(t *testing.T) {
	svc, _ := newFocusFixture(nil)

	list, err := svc.Get(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, list.StudentIDs)
	assert.Equal(t, "c1", list.ClassID)
}

func TestFocusListReorderRequiresPermutation(t *testing.T) {
	svc, repo := newFocusFixture([]string{"s1", "s2"})

	list, err := svc.Reorder(context.Background(), "t1", "c1", []string{"s2", "s1"})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"s2", "s1"}, list.StudentIDs)
	assert.Equal(t, 1, repo.saves)

	_, err = svc.Reorder(context.Background(), "t1", "c1", []string{"s2"})
	require.Error(t, err)

	_, err = svc.Reorder(context.Background(), "t1", "c1", []string{"s2", "s2"})
	require.Error(t, err)

	_, err = svc.Reorder(context.Background(), "t1", "c1", []string{"s2", "s3"})
	require.Error(t, err)
}
