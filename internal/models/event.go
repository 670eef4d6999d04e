package models

import (
	"encoding/json"
	"time"
)

// Event represents a single calendar occurrence, either created locally or
// mirrored from an external provider by the sync job. Events are unique per
// (calendar_source_id, external_id).
type Event struct {
	ID               int64           `json:"id" db:"id"`
	HouseholdID      int64           `json:"household_id" db:"household_id"`
	CalendarSourceID *int64          `json:"calendar_source_id" db:"calendar_source_id"`
	ExternalID       string          `json:"external_id" db:"external_id"`
	Title            string          `json:"title" db:"title"`
	Description      string          `json:"description" db:"description"`
	Location         string          `json:"location" db:"location"`
	StartTime        time.Time       `json:"start_time" db:"start_time"`
	EndTime          *time.Time      `json:"end_time" db:"end_time"`
	AllDay           bool            `json:"all_day" db:"all_day"`
	Recurrence       string          `json:"recurrence" db:"recurrence"`
	RawPayload       json.RawMessage `json:"raw_payload,omitempty" db:"raw_payload"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// OnDay reports whether the event occurs on the given calendar day in the
// day's location.
func (e *Event) OnDay(day time.Time) bool {
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	end := e.StartTime
	if e.EndTime != nil {
		end = *e.EndTime
	}
	return e.StartTime.Before(dayEnd) && !end.Before(dayStart)
}
