package models

import (
	"encoding/json"
	"time"
)

// Display represents a registered wall-mounted kiosk device. The auth token
// is the sole kiosk credential and can be rotated without deleting the
// record; Settings is the raw settings blob as stored (see DisplaySettings
// for the parsed form).
type Display struct {
	ID          int64           `json:"id" db:"id"`
	HouseholdID int64           `json:"household_id" db:"household_id"`
	Name        string          `json:"name" db:"name"`
	AuthToken   string          `json:"-" db:"auth_token"`
	Settings    json.RawMessage `json:"settings" db:"settings"`
	LastSeenAt  *time.Time      `json:"last_seen_at" db:"last_seen_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOnline reports whether the display has sent a heartbeat within the
// given window.
func (d *Display) IsOnline(window time.Duration, now time.Time) bool {
	if d.LastSeenAt == nil {
		return false
	}
	return now.Sub(*d.LastSeenAt) <= window
}
