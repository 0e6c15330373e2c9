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

// DocumentRepository manages metadata for uploaded student documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a new repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = "id, student_id, file_name, file_type, storage_path, uploaded_at, uploaded_by"

// ListByStudent returns a student's documents, newest upload first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentDocument, error) {
	var docs []models.StudentDocument
	query := fmt.Sprintf("SELECT %s FROM student_documents WHERE student_id = $1 ORDER BY uploaded_at DESC", documentColumns)
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// GetByID fetches one document record. Returns (nil, nil) when absent.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.StudentDocument, error) {
	var doc models.StudentDocument
	query := fmt.Sprintf("SELECT %s FROM student_documents WHERE id = $1", documentColumns)
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// Create records an uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.StudentDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	query := `INSERT INTO student_documents (id, student_id, file_name, file_type, storage_path, uploaded_at, uploaded_by)
VALUES (:id, :student_id, :file_name, :file_type, :storage_path, :uploaded_at, :uploaded_by)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Delete removes a document record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM student_documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
