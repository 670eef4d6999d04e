package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type calendarSourceRepository struct {
	db *sql.DB
}

// NewCalendarSourceRepository creates a new calendar source repository
func NewCalendarSourceRepository(db *sql.DB) repository.CalendarSourceRepository {
	return &calendarSourceRepository{db: db}
}

const calendarSourceColumns = `id, household_id, provider, name, access_token, refresh_token, token_expiry,
		sync_cursor, enabled, last_synced_at, last_sync_error, created_at, updated_at`

func scanCalendarSource(row interface{ Scan(...any) error }) (*models.CalendarSource, error) {
	source := &models.CalendarSource{}
	err := row.Scan(
		&source.ID, &source.HouseholdID, &source.Provider, &source.Name,
		&source.AccessToken, &source.RefreshToken, &source.TokenExpiry,
		&source.SyncCursor, &source.Enabled, &source.LastSyncedAt,
		&source.LastSyncError, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (r *calendarSourceRepository) Create(ctx context.Context, source *models.CalendarSource) (*models.CalendarSource, error) {
	query := `INSERT INTO calendar_sources (household_id, provider, name, access_token, refresh_token,
			token_expiry, sync_cursor, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		source.HouseholdID, source.Provider, source.Name,
		source.AccessToken, source.RefreshToken, source.TokenExpiry,
		source.SyncCursor, source.Enabled, source.CreatedAt, source.UpdatedAt,
	).Scan(&source.ID, &source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar source: %w", err)
	}
	return source, nil
}

func (r *calendarSourceRepository) GetByID(ctx context.Context, id int64) (*models.CalendarSource, error) {
	query := `SELECT ` + calendarSourceColumns + ` FROM calendar_sources WHERE id = $1`
	source, err := scanCalendarSource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar source: %w", err)
	}
	return source, nil
}

func (r *calendarSourceRepository) GetByHousehold(ctx context.Context, householdID int64) ([]*models.CalendarSource, error) {
	query := `SELECT ` + calendarSourceColumns + ` FROM calendar_sources
		WHERE household_id = $1 ORDER BY created_at ASC`
	return r.querySources(ctx, query, householdID)
}

// GetStale returns enabled sources whose last sync finished before the
// given time (or that have never synced).
func (r *calendarSourceRepository) GetStale(ctx context.Context, olderThan time.Time) ([]*models.CalendarSource, error) {
	query := `SELECT ` + calendarSourceColumns + ` FROM calendar_sources
		WHERE enabled = true AND (last_synced_at IS NULL OR last_synced_at < $1)
		ORDER BY last_synced_at ASC NULLS FIRST`
	return r.querySources(ctx, query, olderThan)
}

func (r *calendarSourceRepository) querySources(ctx context.Context, query string, args ...interface{}) ([]*models.CalendarSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.CalendarSource
	for rows.Next() {
		source, err := scanCalendarSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (r *calendarSourceRepository) Update(ctx context.Context, source *models.CalendarSource) (*models.CalendarSource, error) {
	query := `UPDATE calendar_sources SET name=$2, access_token=$3, refresh_token=$4, token_expiry=$5,
			enabled=$6, updated_at=$7
		WHERE id=$1 RETURNING updated_at`
	source.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		source.ID, source.Name, source.AccessToken, source.RefreshToken,
		source.TokenExpiry, source.Enabled, source.UpdatedAt,
	).Scan(&source.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar source: %w", err)
	}
	return source, nil
}

func (r *calendarSourceRepository) UpdateSyncState(ctx context.Context, id int64, cursor string, syncedAt time.Time) error {
	query := `UPDATE calendar_sources
		SET sync_cursor=$2, last_synced_at=$3, last_sync_error='', updated_at=$3
		WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id, cursor, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("calendar source %d not found", id)
	}
	return nil
}

func (r *calendarSourceRepository) RecordSyncError(ctx context.Context, id int64, message string) error {
	query := `UPDATE calendar_sources SET last_sync_error=$2, updated_at=$3 WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, query, id, message, time.Now()); err != nil {
		return fmt.Errorf("failed to record sync error: %w", err)
	}
	return nil
}

// Disconnect disables the source and clears its credentials and cursor,
// keeping the row so the user can reconnect it later.
func (r *calendarSourceRepository) Disconnect(ctx context.Context, id int64) error {
	query := `UPDATE calendar_sources
		SET enabled=false, access_token='', refresh_token='', token_expiry=NULL, sync_cursor='', updated_at=$2
		WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to disconnect calendar source: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("calendar source %d not found", id)
	}
	return nil
}

func (r *calendarSourceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM calendar_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar source: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("calendar source %d not found", id)
	}
	return nil
}
