package models

import "time"

// Teacher is the profile behind every class, behavior, and incident. The ID
// is the opaque subject issued by the external identity provider, so it stays
// stable across sessions.
type Teacher struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
