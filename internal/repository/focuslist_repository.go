package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classtrack/classtrack-api/internal/models"
)

// FocusListRepository manages per-class focus lists.
type FocusListRepository struct {
	db *sqlx.DB
}

// NewFocusListRepository constructs a new repository.
func NewFocusListRepository(db *sqlx.DB) *FocusListRepository {
	return &FocusListRepository{db: db}
}

// GetLatest returns the authoritative list for the (teacher, class) pair.
// Duplicate rows left behind by racing writers are tolerated by picking the
// most recently updated one. Returns (nil, nil) when no list exists yet.
func (r *FocusListRepository) GetLatest(ctx context.Context, teacherID, classID string) (*models.FocusList, error) {
	var list models.FocusList
	query := `SELECT id, teacher_id, class_id, student_ids, last_updated
FROM focus_lists WHERE teacher_id = $1 AND class_id = $2
ORDER BY last_updated DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &list, query, teacherID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get focus list: %w", err)
	}
	return &list, nil
}

// Save persists the full ordered list. When a list already exists its row ID
// is reused; otherwise a new row is created.
func (r *FocusListRepository) Save(ctx context.Context, list *models.FocusList) error {
	if list.StudentIDs == nil {
		list.StudentIDs = pq.StringArray{}
	}
	list.LastUpdated = time.Now().UTC()

	if list.ID != "" {
		query := `UPDATE focus_lists SET student_ids = :student_ids, last_updated = :last_updated WHERE id = :id`
		res, err := r.db.NamedExecContext(ctx, query, list)
		if err != nil {
			return fmt.Errorf("update focus list: %w", err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			return nil
		}
		// Row vanished between read and write; fall through to insert.
	}

	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	query := `INSERT INTO focus_lists (id, teacher_id, class_id, student_ids, last_updated)
VALUES (:id, :teacher_id, :class_id, :student_ids, :last_updated)`
	if _, err := r.db.NamedExecContext(ctx, query, list); err != nil {
		return fmt.Errorf("create focus list: %w", err)
	}
	return nil
}
