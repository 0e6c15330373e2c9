package models

import "time"

// Class is a roster container owned by exactly one teacher.
type Class struct {
	ID         string    `db:"id" json:"id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	Name       string    `db:"name" json:"name"`
	Period     *string   `db:"period" json:"period,omitempty"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
