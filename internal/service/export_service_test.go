package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/pkg/jobs"
	"github.com/classtrack/classtrack-api/pkg/storage"
)

type mockExportJobRepo struct {
	jobs map[string]*models.ExportJob
}

func (m *mockExportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job1"
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if m.jobs == nil {
		m.jobs = make(map[string]*models.ExportJob)
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockExportJobRepo) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if j, ok := m.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (m *mockExportJobRepo) ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, j := range m.jobs {
		if j.TeacherID == teacherID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *mockExportJobRepo) MarkRunning(ctx context.Context, id string) error {
	m.jobs[id].Status = models.ExportStatusRunning
	return nil
}

func (m *mockExportJobRepo) MarkFinished(ctx context.Context, id, resultPath, resultToken string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusFinished
	j.ResultPath = &resultPath
	j.ResultToken = &resultToken
	return nil
}

func (m *mockExportJobRepo) MarkFailed(ctx context.Context, id, message string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusFailed
	j.ErrorMessage = &message
	return nil
}

func (m *mockExportJobRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var paths []string
	for id, j := range m.jobs {
		if j.Status == models.ExportStatusFinished && j.CreatedAt.Before(cutoff) {
			if j.ResultPath != nil {
				paths = append(paths, *j.ResultPath)
			}
			delete(m.jobs, id)
		}
	}
	return paths, nil
}

type mockStudentBatch struct {
	students map[string]models.Student
}

func (m *mockStudentBatch) GetByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	out := make(map[string]models.Student, len(ids))
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func newExportFixture(t *testing.T) (*ExportService, *mockExportJobRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	notes := "shouted during silent reading"
	incidents := &mockIncidentRepo{incidents: map[string]*models.Incident{
		"i1": {ID: "i1", StudentID: "s1", ClassID: "c1", TeacherID: "t1", BehaviorID: "b1", Notes: &notes, Timestamp: time.Now().UTC()},
		"i2": {ID: "i2", StudentID: "s1", ClassID: "c1", TeacherID: "t1", BehaviorID: "gone", Timestamp: time.Now().UTC()},
	}}
	behaviors := &mockBehaviorRepo{behaviors: map[string]*models.Behavior{
		"b1": {ID: "b1", TeacherID: "t1", Name: "Calling Out", Type: models.BehaviorNegative},
	}}
	students := &mockStudentBatch{students: map[string]models.Student{
		"s1": {ID: "s1", ClassID: "c1", FirstName: "Sam", LastName: "Smith"},
	}}
	classes := &mockClassGetter{classes: map[string]*models.Class{
		"c1": {ID: "c1", TeacherID: "t1", Name: "Period 3"},
	}}

	repo := &mockExportJobRepo{}
	svc := NewExportService(repo, incidents, behaviors, students, classes, store, signer, time.Hour, nil)
	return svc, repo
}

func TestEnqueueRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t)
	_, err := svc.Enqueue(context.Background(), "t1", ExportRequest{ClassID: "c1", Format: "xlsx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv or pdf")
}

func TestEnqueueRejectsForeignClass(t *testing.T) {
	svc, _ := newExportFixture(t)
	queue := jobs.NewQueue("exports", svc.HandleJob, jobs.QueueConfig{})
	svc.Attach(queue)

	_, err := svc.Enqueue(context.Background(), "t2", ExportRequest{ClassID: "c1", Format: models.ExportFormatCSV})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHandleJobRendersCSVAndFinishes(t *testing.T) {
	svc, repo := newExportFixture(t)
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		ID: "job1", TeacherID: "t1", ClassID: "c1",
		Format: models.ExportFormatCSV, Status: models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}))

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job1", Payload: "job1"})
	require.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "job1")
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFinished, job.Status)
	require.NotNil(t, job.ResultToken)

	resolved, file, err := svc.Resolve(context.Background(), *job.ResultToken)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	assert.Equal(t, "job1", resolved.ID)

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	body := string(buf[:n])
	assert.Contains(t, body, "Sam Smith")
	assert.Contains(t, body, "Calling Out")
	assert.Contains(t, body, "(removed)")
}

func TestHandleJobRecordsTerminalFailure(t *testing.T) {
	svc, repo := newExportFixture(t)
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		ID: "job2", TeacherID: "t1", ClassID: "c1",
		Format: models.ExportFormat("xlsx"), Status: models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}))

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job2", Payload: "job2"})
	require.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "job2")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.True(t, strings.Contains(*job.ErrorMessage, "renderer"))
}

func TestDownloadRequiresFinishedJob(t *testing.T) {
	svc, repo := newExportFixture(t)
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		ID: "job3", TeacherID: "t1", ClassID: "c1",
		Format: models.ExportFormatCSV, Status: models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}))

	_, err := svc.Download(context.Background(), "t1", "job3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finished")
}
