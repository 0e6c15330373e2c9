package models

import "time"

// BehaviorType is the polarity of a tracked behavior.
type BehaviorType string

const (
	BehaviorPositive BehaviorType = "positive"
	BehaviorNegative BehaviorType = "negative"
)

// Valid reports whether the type is one of the two known polarities.
func (t BehaviorType) Valid() bool {
	return t == BehaviorPositive || t == BehaviorNegative
}

// Behavior is a teacher-defined, reusable label tracked across students,
// e.g. "Active Listening" or "Calling Out".
type Behavior struct {
	ID          string       `db:"id" json:"id"`
	TeacherID   string       `db:"teacher_id" json:"teacher_id"`
	Name        string       `db:"name" json:"name"`
	Type        BehaviorType `db:"type" json:"type"`
	Description *string      `db:"description" json:"description,omitempty"`
	Color       *string      `db:"color" json:"color,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
