package repository

import (
	"context"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
)

// HouseholdRepository defines the interface for household data operations
type HouseholdRepository interface {
	Create(ctx context.Context, household *models.Household) (*models.Household, error)
	GetByID(ctx context.Context, id int64) (*models.Household, error)
	Update(ctx context.Context, household *models.Household) (*models.Household, error)
	Delete(ctx context.Context, id int64) error
}

// MemberRepository defines the interface for household member operations
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) (*models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	GetByEmail(ctx context.Context, householdID int64, email string) (*models.Member, error)
	GetByHousehold(ctx context.Context, householdID int64) ([]*models.Member, error)
	Update(ctx context.Context, member *models.Member) (*models.Member, error)
	Delete(ctx context.Context, id int64) error
}

// EventRepository defines the interface for calendar event operations
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetByHousehold(ctx context.Context, householdID int64, filters EventFilters) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id int64) error

	// UpsertBySource inserts or updates events keyed by
	// (calendar_source_id, external_id).
	UpsertBySource(ctx context.Context, sourceID int64, events []*models.Event) (int, error)
	// DeleteBySourceExternalIDs removes events a provider reports as
	// cancelled, returning how many rows were removed.
	DeleteBySourceExternalIDs(ctx context.Context, sourceID int64, externalIDs []string) (int, error)
}

// CalendarSourceRepository defines the interface for connected calendars
type CalendarSourceRepository interface {
	Create(ctx context.Context, source *models.CalendarSource) (*models.CalendarSource, error)
	GetByID(ctx context.Context, id int64) (*models.CalendarSource, error)
	GetByHousehold(ctx context.Context, householdID int64) ([]*models.CalendarSource, error)
	GetStale(ctx context.Context, olderThan time.Time) ([]*models.CalendarSource, error)
	Update(ctx context.Context, source *models.CalendarSource) (*models.CalendarSource, error)
	// UpdateSyncState persists the cursor and sync timestamp after a
	// successful sync, clearing any recorded error.
	UpdateSyncState(ctx context.Context, id int64, cursor string, syncedAt time.Time) error
	// RecordSyncError stores the failure text for the source row.
	RecordSyncError(ctx context.Context, id int64, message string) error
	// Disconnect disables the source and clears its stored credentials.
	Disconnect(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ChoreRepository defines the interface for chore definitions
type ChoreRepository interface {
	Create(ctx context.Context, chore *models.Chore) (*models.Chore, error)
	GetByID(ctx context.Context, id int64) (*models.Chore, error)
	GetByHousehold(ctx context.Context, householdID int64) ([]*models.Chore, error)
	Update(ctx context.Context, chore *models.Chore) (*models.Chore, error)
	Delete(ctx context.Context, id int64) error
}

// ChoreAssignmentRepository defines the interface for scheduled chore
// occurrences
type ChoreAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ChoreAssignment) (*models.ChoreAssignment, error)
	GetByID(ctx context.Context, id int64) (*models.ChoreAssignment, error)
	GetByChore(ctx context.Context, choreID int64) ([]*models.ChoreAssignment, error)
	GetByHousehold(ctx context.Context, householdID int64, filters AssignmentFilters) ([]*models.ChoreAssignment, error)
	Update(ctx context.Context, assignment *models.ChoreAssignment) (*models.ChoreAssignment, error)
	Delete(ctx context.Context, id int64) error
}

// DisplayRepository defines the interface for kiosk displays
type DisplayRepository interface {
	Create(ctx context.Context, display *models.Display) (*models.Display, error)
	GetByID(ctx context.Context, id int64) (*models.Display, error)
	GetByToken(ctx context.Context, token string) (*models.Display, error)
	GetByHousehold(ctx context.Context, householdID int64) ([]*models.Display, error)
	Update(ctx context.Context, display *models.Display) (*models.Display, error)
	UpdateToken(ctx context.Context, id int64, token string) error
	Touch(ctx context.Context, id int64, seenAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// PhotoRepository defines the interface for photo records
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	GetByHousehold(ctx context.Context, householdID int64, onlyEnabled bool) ([]*models.Photo, error)
	TotalSizeByHousehold(ctx context.Context, householdID int64) (int64, error)
	// ExternalIDsBySource lists the provider IDs already imported from an
	// album, so sync sweeps can skip them.
	ExternalIDsBySource(ctx context.Context, sourceID int64) (map[string]bool, error)
	Update(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	Delete(ctx context.Context, id int64) error
}

// PhotoSourceRepository defines the interface for connected photo albums
type PhotoSourceRepository interface {
	Create(ctx context.Context, source *models.PhotoSource) (*models.PhotoSource, error)
	GetByID(ctx context.Context, id int64) (*models.PhotoSource, error)
	GetByHousehold(ctx context.Context, householdID int64) ([]*models.PhotoSource, error)
	GetStale(ctx context.Context, olderThan time.Time) ([]*models.PhotoSource, error)
	Update(ctx context.Context, source *models.PhotoSource) (*models.PhotoSource, error)
	MarkSynced(ctx context.Context, id int64, syncedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// EventFilters represents filters for querying calendar events
type EventFilters struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// AssignmentFilters represents filters for querying chore assignments
type AssignmentFilters struct {
	MemberID  *int64
	Completed *bool
	From      *time.Time
	To        *time.Time
	Limit     int
}
