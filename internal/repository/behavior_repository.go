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

// BehaviorRepository manages the teacher's reusable behavior catalog.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a new repository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

const behaviorColumns = "id, teacher_id, name, type, description, color, created_at"

// ListByTeacher returns the catalog grouped by polarity, oldest first within
// each group so quick-log buttons keep a stable order.
func (r *BehaviorRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Behavior, error) {
	var behaviors []models.Behavior
	query := fmt.Sprintf("SELECT %s FROM behaviors WHERE teacher_id = $1 ORDER BY type, created_at", behaviorColumns)
	if err := r.db.SelectContext(ctx, &behaviors, query, teacherID); err != nil {
		return nil, fmt.Errorf("list behaviors: %w", err)
	}
	return behaviors, nil
}

// GetByID fetches one behavior. Returns (nil, nil) when absent.
func (r *BehaviorRepository) GetByID(ctx context.Context, id string) (*models.Behavior, error) {
	var behavior models.Behavior
	query := fmt.Sprintf("SELECT %s FROM behaviors WHERE id = $1", behaviorColumns)
	if err := r.db.GetContext(ctx, &behavior, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get behavior: %w", err)
	}
	return &behavior, nil
}

// FindByNameAndType matches case-insensitively on the trimmed name within one
// teacher's catalog. Returns (nil, nil) when no match exists.
func (r *BehaviorRepository) FindByNameAndType(ctx context.Context, teacherID, name string, behaviorType models.BehaviorType) (*models.Behavior, error) {
	var behavior models.Behavior
	query := fmt.Sprintf(`SELECT %s FROM behaviors
WHERE teacher_id = $1 AND LOWER(TRIM(name)) = LOWER(TRIM($2)) AND type = $3 LIMIT 1`, behaviorColumns)
	if err := r.db.GetContext(ctx, &behavior, query, teacherID, name, behaviorType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find behavior by name: %w", err)
	}
	return &behavior, nil
}

// Create inserts a new behavior.
func (r *BehaviorRepository) Create(ctx context.Context, behavior *models.Behavior) error {
	if behavior.ID == "" {
		behavior.ID = uuid.NewString()
	}
	if behavior.CreatedAt.IsZero() {
		behavior.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO behaviors (id, teacher_id, name, type, description, color, created_at)
VALUES (:id, :teacher_id, :name, :type, :description, :color, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, behavior); err != nil {
		return fmt.Errorf("create behavior: %w", err)
	}
	return nil
}

// Update modifies an existing behavior. Type is immutable after creation.
func (r *BehaviorRepository) Update(ctx context.Context, behavior *models.Behavior) error {
	query := `UPDATE behaviors SET name = :name, description = :description, color = :color WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, behavior); err != nil {
		return fmt.Errorf("update behavior: %w", err)
	}
	return nil
}

// Delete removes a behavior from the catalog. Incidents that referenced it
// remain and are reported as unresolved by the analytics layer.
func (r *BehaviorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM behaviors WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete behavior: %w", err)
	}
	return nil
}
