package dto

import "github.com/classtrack/classtrack-api/internal/models"

// DocumentDownloadResponse enriches document metadata with a signed,
// short-lived download URL.
type DocumentDownloadResponse struct {
	models.StudentDocument
	DownloadURL string `json:"downloadUrl"`
}

// ExportDownloadResponse carries the signed URL for a finished export.
type ExportDownloadResponse struct {
	JobID       string `json:"jobId"`
	DownloadURL string `json:"downloadUrl"`
}
