package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ParentContact is one entry in a student's ordered contact list.
type ParentContact struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship" validate:"required"`
}

// ParentContacts is stored as a JSONB column so ordering survives round trips.
type ParentContacts []ParentContact

// Value implements driver.Valuer.
func (p ParentContacts) Value() (driver.Value, error) {
	if p == nil {
		p = ParentContacts{}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ParentContacts) Scan(src interface{}) error {
	if src == nil {
		*p = ParentContacts{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan parent contacts: unsupported type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// Student belongs to one class. FocusBehaviorIDs selects which of the
// teacher's behaviors appear as quick-log shortcuts for this student.
type Student struct {
	ID               string         `db:"id" json:"id"`
	ClassID          string         `db:"class_id" json:"class_id"`
	FirstName        string         `db:"first_name" json:"first_name"`
	LastName         string         `db:"last_name" json:"last_name"`
	Grade            *string        `db:"grade" json:"grade,omitempty"`
	ParentContacts   ParentContacts `db:"parent_contacts" json:"parent_contacts"`
	DocumentIDs      pq.StringArray `db:"document_ids" json:"document_ids"`
	FocusBehaviorIDs pq.StringArray `db:"focus_behavior_ids" json:"focus_behavior_ids,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
