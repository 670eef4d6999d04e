package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new calendar event repository
func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, household_id, calendar_source_id, external_id, title, description, location,
		start_time, end_time, all_day, recurrence, raw_payload, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	event := &models.Event{}
	var rawPayload []byte
	err := row.Scan(
		&event.ID, &event.HouseholdID, &event.CalendarSourceID, &event.ExternalID,
		&event.Title, &event.Description, &event.Location,
		&event.StartTime, &event.EndTime, &event.AllDay, &event.Recurrence,
		&rawPayload, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.RawPayload = rawPayload
	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `INSERT INTO events (household_id, calendar_source_id, external_id, title, description, location,
			start_time, end_time, all_day, recurrence, raw_payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		event.HouseholdID, event.CalendarSourceID, event.ExternalID,
		event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime, event.AllDay, event.Recurrence,
		nullableJSON(event.RawPayload), event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) GetByHousehold(ctx context.Context, householdID int64, filters repository.EventFilters) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE household_id = $1`
	args := []interface{}{householdID}
	argIdx := 2

	if filters.From != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", argIdx)
		args = append(args, *filters.From)
		argIdx++
	}
	if filters.To != nil {
		query += fmt.Sprintf(" AND start_time <= $%d", argIdx)
		args = append(args, *filters.To)
		argIdx++
	}

	query += " ORDER BY start_time ASC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `UPDATE events SET title=$2, description=$3, location=$4, start_time=$5, end_time=$6,
			all_day=$7, recurrence=$8, updated_at=$9
		WHERE id=$1 RETURNING updated_at`
	event.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime, event.AllDay, event.Recurrence, event.UpdatedAt,
	).Scan(&event.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("event %d not found", id)
	}
	return nil
}

// UpsertBySource writes synced events keyed by (calendar_source_id,
// external_id), inheriting the household from the source row.
func (r *eventRepository) UpsertBySource(ctx context.Context, sourceID int64, events []*models.Event) (int, error) {
	query := `INSERT INTO events (household_id, calendar_source_id, external_id, title, description, location,
			start_time, end_time, all_day, recurrence, raw_payload, created_at, updated_at)
		SELECT cs.household_id, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
		FROM calendar_sources cs WHERE cs.id = $1
		ON CONFLICT (calendar_source_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			all_day = EXCLUDED.all_day,
			recurrence = EXCLUDED.recurrence,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = EXCLUDED.updated_at`

	count := 0
	now := time.Now()
	for _, event := range events {
		_, err := r.db.ExecContext(ctx, query,
			sourceID, event.ExternalID, event.Title, event.Description, event.Location,
			event.StartTime, event.EndTime, event.AllDay, event.Recurrence,
			nullableJSON(event.RawPayload), now,
		)
		if err != nil {
			return count, fmt.Errorf("failed to upsert event %s: %w", event.ExternalID, err)
		}
		count++
	}
	return count, nil
}

func (r *eventRepository) DeleteBySourceExternalIDs(ctx context.Context, sourceID int64, externalIDs []string) (int, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	query := `DELETE FROM events WHERE calendar_source_id = $1 AND external_id = ANY($2)`
	result, err := r.db.ExecContext(ctx, query, sourceID, pq.Array(externalIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cancelled events: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// nullableJSON maps an empty payload to NULL for the jsonb column.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}
