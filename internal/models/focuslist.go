package models

import (
	"time"

	"github.com/lib/pq"
)

// FocusList is the ordered subset of a class's roster under active
// observation. There is at most one authoritative list per (teacher, class)
// pair; duplicates left behind by write races are tolerated on read by
// picking the most recently updated row.
type FocusList struct {
	ID          string         `db:"id" json:"id"`
	TeacherID   string         `db:"teacher_id" json:"teacher_id"`
	ClassID     string         `db:"class_id" json:"class_id"`
	StudentIDs  pq.StringArray `db:"student_ids" json:"student_ids"`
	LastUpdated time.Time      `db:"last_updated" json:"last_updated"`
}
