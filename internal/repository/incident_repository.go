package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// IncidentRepository manages the append-only incident log. Incidents are
// never updated; the only mutations are insert and hard delete.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs a new repository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

const incidentColumns = "id, student_id, class_id, teacher_id, behavior_id, timestamp, notes"

// List returns incidents matching the filter, newest first. Date bounds are
// applied in SQL so callers never page through rows they will discard.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("timestamp >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("timestamp <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	query := fmt.Sprintf("SELECT %s FROM incidents WHERE %s ORDER BY timestamp DESC",
		incidentColumns, strings.Join(where, " AND "))

	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, args...); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// GetByID fetches one incident. Returns (nil, nil) when absent.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	var incident models.Incident
	query := fmt.Sprintf("SELECT %s FROM incidents WHERE id = $1", incidentColumns)
	if err := r.db.GetContext(ctx, &incident, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &incident, nil
}

// Create appends an incident to the log. The timestamp defaults to now and
// is immutable afterwards.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.Timestamp.IsZero() {
		incident.Timestamp = time.Now().UTC()
	}
	query := `INSERT INTO incidents (id, student_id, class_id, teacher_id, behavior_id, timestamp, notes)
VALUES (:id, :student_id, :class_id, :teacher_id, :behavior_id, :timestamp, :notes)`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// Delete hard-deletes one incident, the undo path for a mistaken log.
func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM incidents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	return nil
}
