package models

import "time"

// ExportFormat selects the rendered output for incident-log exports.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an export job through its lifecycle.
type ExportStatus string

const (
	ExportStatusQueued   ExportStatus = "queued"
	ExportStatusRunning  ExportStatus = "running"
	ExportStatusFinished ExportStatus = "finished"
	ExportStatusFailed   ExportStatus = "failed"
)

// ExportJob is one queued incident-log export.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	ClassID      string       `db:"class_id" json:"class_id"`
	StudentID    *string      `db:"student_id" json:"student_id,omitempty"`
	DateFrom     *time.Time   `db:"date_from" json:"date_from,omitempty"`
	DateTo       *time.Time   `db:"date_to" json:"date_to,omitempty"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	ResultPath   *string      `db:"result_path" json:"-"`
	ResultToken  *string      `db:"result_token" json:"result_token,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}
