package models

import "time"

// StudentDocument records an uploaded IEP/504/support file for a student.
// The bytes live on disk under the documents storage dir; this row holds the
// metadata.
type StudentDocument struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	FileType    string    `db:"file_type" json:"file_type"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
}
