package models

import "time"

// CalendarProvider identifies which external calendar service a source
// connects to.
type CalendarProvider string

const (
	CalendarProviderGoogle CalendarProvider = "google"
)

// CalendarSource is a connection to an external calendar. The OAuth tokens
// are stored encrypted; SyncCursor is the provider-issued incremental sync
// token, empty before the first successful sync.
type CalendarSource struct {
	ID            int64            `json:"id" db:"id"`
	HouseholdID   int64            `json:"household_id" db:"household_id"`
	Provider      CalendarProvider `json:"provider" db:"provider"`
	Name          string           `json:"name" db:"name"`
	AccessToken   string           `json:"-" db:"access_token"`
	RefreshToken  string           `json:"-" db:"refresh_token"`
	TokenExpiry   *time.Time       `json:"-" db:"token_expiry"`
	SyncCursor    string           `json:"-" db:"sync_cursor"`
	Enabled       bool             `json:"enabled" db:"enabled"`
	LastSyncedAt  *time.Time       `json:"last_synced_at" db:"last_synced_at"`
	LastSyncError string           `json:"last_sync_error,omitempty" db:"last_sync_error"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// NeedsSync reports whether the source is due for a sync sweep.
func (c *CalendarSource) NeedsSync(interval time.Duration, now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*c.LastSyncedAt) >= interval
}

// TokenExpired reports whether the stored access token has expired (with a
// one minute safety margin).
func (c *CalendarSource) TokenExpired(now time.Time) bool {
	if c.TokenExpiry == nil {
		return true
	}
	return !now.Add(time.Minute).Before(*c.TokenExpiry)
}
