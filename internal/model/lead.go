// internal/model/lead.go
package model

import "time"

// Lead is owned by the CRM; the engine only ever reads it.
type Lead struct {
	ID          int       `db:"id" json:"id"`
	ContactName string    `db:"contact_name" json:"contact_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Pipeline    string    `db:"pipeline" json:"pipeline"`
	Company     string    `db:"company" json:"company"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
