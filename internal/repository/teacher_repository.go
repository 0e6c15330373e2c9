package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// TeacherRepository manages teacher profiles. The primary key is the subject
// issued by the identity provider, so creation is an upsert keyed on it.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a new repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// GetByID fetches one teacher. Returns (nil, nil) when absent.
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	query := "SELECT id, email, display_name, created_at FROM teachers WHERE id = $1"
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &teacher, nil
}

// Upsert inserts the profile or refreshes email and display name on conflict.
func (r *TeacherRepository) Upsert(ctx context.Context, teacher *models.Teacher) error {
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO teachers (id, email, display_name, created_at)
VALUES (:id, :email, :display_name, :created_at)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}
