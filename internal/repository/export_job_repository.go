package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ExportJobRepository tracks queued incident-log exports.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs a new repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

const exportJobColumns = "id, teacher_id, class_id, student_id, date_from, date_to, format, status, result_path, result_token, error_message, created_at, finished_at"

// Create inserts a job in the queued state.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	query := `INSERT INTO export_jobs (id, teacher_id, class_id, student_id, date_from, date_to, format, status, created_at)
VALUES (:id, :teacher_id, :class_id, :student_id, :date_from, :date_to, :format, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID fetches one job. Returns (nil, nil) when absent.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE id = $1", exportJobColumns)
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return &job, nil
}

// ListByTeacher returns the teacher's recent jobs, newest first.
func (r *ExportJobRepository) ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var jobs []models.ExportJob
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE teacher_id = $1 ORDER BY created_at DESC LIMIT %d", exportJobColumns, limit)
	if err := r.db.SelectContext(ctx, &jobs, query, teacherID); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}

// MarkRunning transitions a queued job to running.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	query := "UPDATE export_jobs SET status = $2 WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusRunning); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}
	return nil
}

// MarkFinished records the rendered artifact and download token.
func (r *ExportJobRepository) MarkFinished(ctx context.Context, id, resultPath, resultToken string) error {
	query := `UPDATE export_jobs SET status = $2, result_path = $3, result_token = $4, finished_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFinished, resultPath, resultToken, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	return nil
}

// MarkFailed records the terminal failure message.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `UPDATE export_jobs SET status = $2, error_message = $3, finished_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export job failed: %w", err)
	}
	return nil
}

// DeleteFinishedBefore purges finished and failed jobs older than the cutoff
// and returns the artifact paths so the caller can remove the files.
func (r *ExportJobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var paths []string
	query := `DELETE FROM export_jobs
WHERE status IN ($1, $2) AND finished_at < $3
RETURNING COALESCE(result_path, '')`
	if err := r.db.SelectContext(ctx, &paths, query, models.ExportStatusFinished, models.ExportStatusFailed, cutoff); err != nil {
		return nil, fmt.Errorf("purge export jobs: %w", err)
	}
	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
