package models

import "time"

// Incident is one timestamped observation linking a student to a behavior.
// The timestamp is immutable once logged; removal is a hard delete.
type Incident struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	BehaviorID string    `db:"behavior_id" json:"behavior_id"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
}

// IncidentFilter narrows incident lookups. Exactly one of StudentID or
// ClassID is normally set; the date bounds are optional.
type IncidentFilter struct {
	StudentID string
	ClassID   string
	From      *time.Time
	To        *time.Time
}
