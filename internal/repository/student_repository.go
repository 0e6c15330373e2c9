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

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, class_id, first_name, last_name, grade, parent_contacts, document_ids, focus_behavior_ids, created_at"

// ListByClass returns the roster ordered by last then first name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var students []models.Student
	query := fmt.Sprintf("SELECT %s FROM students WHERE class_id = $1 ORDER BY last_name, first_name", studentColumns)
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// GetByID fetches one student. Returns (nil, nil) when absent.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// GetByIDs fetches a batch of students keyed by ID.
func (r *StudentRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	out := make(map[string]models.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var students []models.Student
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = ANY($1)", studentColumns)
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get students by ids: %w", err)
	}
	for _, s := range students {
		out[s.ID] = s
	}
	return out, nil
}

func prepareStudent(student *models.Student) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	if student.ParentContacts == nil {
		student.ParentContacts = models.ParentContacts{}
	}
	if student.DocumentIDs == nil {
		student.DocumentIDs = pq.StringArray{}
	}
	if student.FocusBehaviorIDs == nil {
		student.FocusBehaviorIDs = pq.StringArray{}
	}
}

const insertStudentQuery = `INSERT INTO students (id, class_id, first_name, last_name, grade, parent_contacts, document_ids, focus_behavior_ids, created_at)
VALUES (:id, :class_id, :first_name, :last_name, :grade, :parent_contacts, :document_ids, :focus_behavior_ids, :created_at)`

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareStudent(student)
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateBatch inserts several students in one transaction. Used by the
// bulk roster import; either every row lands or none do.
func (r *StudentRepository) CreateBatch(ctx context.Context, students []*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student batch: %w", err)
	}
	for _, student := range students {
		prepareStudent(student)
		if _, err := tx.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert student %s: %w", student.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student batch: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	if student.ParentContacts == nil {
		student.ParentContacts = models.ParentContacts{}
	}
	if student.DocumentIDs == nil {
		student.DocumentIDs = pq.StringArray{}
	}
	if student.FocusBehaviorIDs == nil {
		student.FocusBehaviorIDs = pq.StringArray{}
	}
	query := `UPDATE students SET first_name = :first_name, last_name = :last_name, grade = :grade,
parent_contacts = :parent_contacts, document_ids = :document_ids, focus_behavior_ids = :focus_behavior_ids
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student row. Incidents referencing the student remain.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// AppendDocumentID records a new document reference on the student.
func (r *StudentRepository) AppendDocumentID(ctx context.Context, studentID, documentID string) error {
	query := "UPDATE students SET document_ids = array_append(document_ids, $2) WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, studentID, documentID); err != nil {
		return fmt.Errorf("append student document: %w", err)
	}
	return nil
}

// RemoveDocumentID drops a document reference from the student.
func (r *StudentRepository) RemoveDocumentID(ctx context.Context, studentID, documentID string) error {
	query := "UPDATE students SET document_ids = array_remove(document_ids, $2) WHERE id = $1"
	if _, err := r.db.ExecContext(ctx, query, studentID, documentID); err != nil {
		return fmt.Errorf("remove student document: %w", err)
	}
	return nil
}
