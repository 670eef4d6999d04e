package models

import "time"

// Photo is an uploaded or provider-synced image shown in the kiosk
// slideshow. PhotoSourceID is nil for direct uploads.
type Photo struct {
	ID            int64     `json:"id" db:"id"`
	HouseholdID   int64     `json:"household_id" db:"household_id"`
	PhotoSourceID *int64    `json:"photo_source_id" db:"photo_source_id"`
	ExternalID    string    `json:"external_id" db:"external_id"`
	StoragePath   string    `json:"storage_path" db:"storage_path"`
	SizeBytes     int64     `json:"size_bytes" db:"size_bytes"`
	ContentType   string    `json:"content_type" db:"content_type"`
	Enabled       bool      `json:"enabled" db:"enabled"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PhotoSource is a connected external photo album that the sync job pulls
// images from.
type PhotoSource struct {
	ID           int64      `json:"id" db:"id"`
	HouseholdID  int64      `json:"household_id" db:"household_id"`
	Provider     string     `json:"provider" db:"provider"`
	AlbumID      string     `json:"album_id" db:"album_id"`
	AlbumName    string     `json:"album_name" db:"album_name"`
	Enabled      bool       `json:"enabled" db:"enabled"`
	LastSyncedAt *time.Time `json:"last_synced_at" db:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NeedsSync reports whether the photo source is due for a sync sweep.
func (p *PhotoSource) NeedsSync(interval time.Duration, now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*p.LastSyncedAt) >= interval
}
