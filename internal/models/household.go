package models

import "time"

// Household is the multi-tenant boundary under which members, events,
// chores, photos and displays are scoped.
type Household struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
