package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/export"
	"github.com/classtrack/classtrack-api/pkg/jobs"
	"github.com/classtrack/classtrack-api/pkg/storage"
)

const exportJobType = "incident-log-export"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultPath, resultToken string) error
	MarkFailed(ctx context.Context, id, message string) error
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type studentBatchGetter interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Student, error)
}

type exportRenderer interface {
	Render(log export.IncidentLog) ([]byte, error)
}

// ExportService renders incident-log slices to CSV or PDF asynchronously.
// Enqueue returns immediately with a queued job; a worker picks it up,
// renders the artifact to disk, and records a signed download token.
type ExportService struct {
	jobsRepo  exportJobRepository
	incidents incidentRepository
	behaviors behaviorCatalog
	students  studentBatchGetter
	classes   classGetter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	renderers map[models.ExportFormat]exportRenderer
	retention time.Duration
	logger    *zap.Logger
}

// NewExportService constructs the service. Call Attach with a queue before
// enqueueing.
func NewExportService(jobsRepo exportJobRepository, incidents incidentRepository, behaviors behaviorCatalog, students studentBatchGetter, classes classGetter, store *storage.LocalStorage, signer *storage.SignedURLSigner, retention time.Duration, logger *zap.Logger) *ExportService {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		jobsRepo:  jobsRepo,
		incidents: incidents,
		behaviors: behaviors,
		students:  students,
		classes:   classes,
		store:     store,
		signer:    signer,
		renderers: map[models.ExportFormat]exportRenderer{
			models.ExportFormatCSV: export.NewCSVRenderer(),
			models.ExportFormatPDF: export.NewPDFRenderer(),
		},
		retention: retention,
		logger:    logger,
	}
}

// Attach wires the worker queue that drives HandleJob.
func (s *ExportService) Attach(queue *jobs.Queue) {
	s.queue = queue
}

// ExportRequest describes what slice of the log to render.
type ExportRequest struct {
	ClassID   string              `json:"class_id"`
	StudentID string              `json:"student_id,omitempty"`
	From      *time.Time          `json:"from,omitempty"`
	To        *time.Time          `json:"to,omitempty"`
	Format    models.ExportFormat `json:"format"`
}

// Enqueue validates the request, records a queued job, and hands it to the
// worker pool.
func (s *ExportService) Enqueue(ctx context.Context, teacherID string, req ExportRequest) (*models.ExportJob, error) {
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required")
	}
	class, err := s.classes.GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class == nil || class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	job := &models.ExportJob{
		TeacherID: teacherID,
		ClassID:   req.ClassID,
		DateFrom:  req.From,
		DateTo:    req.To,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
	}
	if req.StudentID != "" {
		job.StudentID = &req.StudentID
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Payload: job.ID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return job, nil
}

// Get returns one job scoped to the requesting teacher.
func (s *ExportService) Get(ctx context.Context, teacherID, id string) (*models.ExportJob, error) {
	job, err := s.jobsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job == nil || job.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// List returns the teacher's recent jobs.
func (s *ExportService) List(ctx context.Context, teacherID string, limit int) ([]models.ExportJob, error) {
	out, err := s.jobsRepo.ListByTeacher(ctx, teacherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return out, nil
}

// Download returns the signed URL for a finished job.
func (s *ExportService) Download(ctx context.Context, teacherID, id string) (*dto.ExportDownloadResponse, error) {
	job, err := s.Get(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.ResultToken == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "export not finished")
	}
	return &dto.ExportDownloadResponse{
		JobID:       job.ID,
		DownloadURL: fmt.Sprintf("/api/exports/download?token=%s", *job.ResultToken),
	}, nil
}

// Resolve validates a signed token and opens the rendered artifact.
func (s *ExportService) Resolve(ctx context.Context, token string) (*models.ExportJob, io.ReadCloser, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job == nil || job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return job, file, nil
}

// HandleJob is the queue handler: it renders one queued export end to end.
// Terminal failures are recorded on the job row rather than retried forever.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		s.logger.Error("export job with malformed payload", zap.String("job_id", job.ID))
		return nil
	}

	record, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}
	if record == nil {
		s.logger.Warn("export job vanished before processing", zap.String("job_id", jobID))
		return nil
	}
	if err := s.jobsRepo.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}

	if err := s.render(ctx, record); err != nil {
		if markErr := s.jobsRepo.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			s.logger.Error("failed to record export failure", zap.String("job_id", jobID), zap.Error(markErr))
		}
		s.logger.Error("export job failed", zap.String("job_id", jobID), zap.Error(err))
		return nil
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) error {
	filter := models.IncidentFilter{ClassID: job.ClassID, From: job.DateFrom, To: job.DateTo}
	if job.StudentID != nil {
		filter.StudentID = *job.StudentID
	}
	incidents, err := s.incidents.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("load incidents: %w", err)
	}

	behaviors, err := s.behaviors.ListByTeacher(ctx, job.TeacherID)
	if err != nil {
		return fmt.Errorf("load behaviors: %w", err)
	}
	byBehavior := make(map[string]models.Behavior, len(behaviors))
	for _, b := range behaviors {
		byBehavior[b.ID] = b
	}

	studentIDs := make([]string, 0, len(incidents))
	seen := make(map[string]struct{}, len(incidents))
	for _, inc := range incidents {
		if _, ok := seen[inc.StudentID]; !ok {
			seen[inc.StudentID] = struct{}{}
			studentIDs = append(studentIDs, inc.StudentID)
		}
	}
	students, err := s.students.GetByIDs(ctx, studentIDs)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}

	log := export.IncidentLog{
		Title: "Incident Log " + job.CreatedAt.Format("2006-01-02"),
		Rows:  make([]export.IncidentRow, 0, len(incidents)),
	}
	for _, inc := range incidents {
		row := export.IncidentRow{Timestamp: inc.Timestamp}
		if st, ok := students[inc.StudentID]; ok {
			row.StudentName = st.FirstName + " " + st.LastName
		} else {
			row.StudentName = inc.StudentID
		}
		if b, ok := byBehavior[inc.BehaviorID]; ok {
			row.BehaviorName = b.Name
			row.BehaviorType = string(b.Type)
		} else {
			row.BehaviorName = "(removed)"
			row.BehaviorType = string(models.BehaviorNegative)
		}
		if inc.Notes != nil {
			row.Notes = *inc.Notes
		}
		log.Rows = append(log.Rows, row)
	}

	renderer, ok := s.renderers[job.Format]
	if !ok {
		return fmt.Errorf("no renderer for format %s", job.Format)
	}
	rendered, err := renderer.Render(log)
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}

	relPath := path.Join("exports", fmt.Sprintf("%s.%s", job.ID, job.Format))
	if _, err := s.store.Save(relPath, rendered); err != nil {
		return fmt.Errorf("store export: %w", err)
	}
	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign export url: %w", err)
	}
	if err := s.jobsRepo.MarkFinished(ctx, job.ID, relPath, token); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	return nil
}

// RunCleanup blocks until ctx is done, periodically purging expired job rows
// and their artifacts.
func (s *ExportService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupOnce(ctx)
		}
	}
}

func (s *ExportService) cleanupOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)
	paths, err := s.jobsRepo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	for _, p := range paths {
		if err := s.store.Delete(p); err != nil {
			s.logger.Warn("export artifact removal failed", zap.String("path", p), zap.Error(err))
		}
	}
	if len(paths) > 0 {
		s.logger.Info("purged expired exports", zap.Int("count", len(paths)))
	}
}
