package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/service"
)

type incidentRepoMock struct {
	created []models.Incident
	listed  []models.Incident
}

func (m *incidentRepoMock) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	return m.listed, nil
}

func (m *incidentRepoMock) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	for _, in := range m.created {
		if in.ID == id {
			cp := in
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *incidentRepoMock) Create(ctx context.Context, incident *models.Incident) error {
	m.created = append(m.created, *incident)
	return nil
}

func (m *incidentRepoMock) Delete(ctx context.Context, id string) error { return nil }

type behaviorGetterMock struct {
	behaviors map[string]models.Behavior
}

func (m *behaviorGetterMock) GetByID(ctx context.Context, id string) (*models.Behavior, error) {
	if b, ok := m.behaviors[id]; ok {
		return &b, nil
	}
	return nil, nil
}

type studentGetterMock struct {
	students map[string]models.Student
}

func (m *studentGetterMock) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

type invalidatorMock struct {
	classIDs []string
}

func (m *invalidatorMock) InvalidateClass(ctx context.Context, classID string) {
	m.classIDs = append(m.classIDs, classID)
}

func newIncidentHandlerFixture() (*IncidentHandler, *incidentRepoMock, *invalidatorMock) {
	repo := &incidentRepoMock{}
	behaviors := &behaviorGetterMock{behaviors: map[string]models.Behavior{
		"b-pos": {ID: "b-pos", TeacherID: "t1", Name: "Helping", Type: models.BehaviorPositive},
	}}
	students := &studentGetterMock{students: map[string]models.Student{
		"s1": {ID: "s1", ClassID: "c1", FirstName: "Sam", LastName: "Smith"},
	}}
	inv := &invalidatorMock{}
	svc := service.NewIncidentService(repo, behaviors, students, inv, nil, nil)
	return NewIncidentHandler(svc, nil), repo, inv
}

func withTeacher(c *gin.Context, teacherID string) {
	c.Set(middleware.ContextTeacherKey, teacherID)
}

func TestLogIncidentCreatedWithCue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, inv := newIncidentHandlerFixture()

	c, w := newGinContext(http.MethodPost, "/api/incidents", []byte(`{"student_id":"s1","behavior_id":"b-pos"}`))
	withTeacher(c, "t1")
	handler.Log(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{"c1"}, inv.classIDs)

	var body struct {
		Data struct {
			Incident models.Incident `json:"incident"`
			Cue      string          `json:"cue"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "positive", body.Data.Cue)
	assert.Equal(t, "s1", body.Data.Incident.StudentID)
	assert.Equal(t, "c1", body.Data.Incident.ClassID)
}

func TestLogIncidentMissingBehaviorIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newIncidentHandlerFixture()

	c, w := newGinContext(http.MethodPost, "/api/incidents", []byte(`{"student_id":"s1"}`))
	withTeacher(c, "t1")
	handler.Log(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.created)
}

func TestListIncidentsRejectsBadTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newIncidentHandlerFixture()

	c, w := newGinContext(http.MethodGet, "/api/incidents?class_id=c1&from=yesterday", nil)
	withTeacher(c, "t1")
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseTimeQueryAcceptsBareDate(t *testing.T) {
	ts, err := parseTimeQuery("2026-03-05")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), *ts)

	ts, err = parseTimeQuery("")
	require.NoError(t, err)
	assert.Nil(t, ts)
}
