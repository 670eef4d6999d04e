package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type displayRepository struct {
	db *sql.DB
}

// NewDisplayRepository creates a new display repository
func NewDisplayRepository(db *sql.DB) repository.DisplayRepository {
	return &displayRepository{db: db}
}

const displayColumns = `id, household_id, name, auth_token, settings, last_seen_at, created_at, updated_at`

func scanDisplay(row interface{ Scan(...any) error }) (*models.Display, error) {
	display := &models.Display{}
	var settings []byte
	err := row.Scan(
		&display.ID, &display.HouseholdID, &display.Name, &display.AuthToken,
		&settings, &display.LastSeenAt, &display.CreatedAt, &display.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	display.Settings = settings
	return display, nil
}

func (r *displayRepository) Create(ctx context.Context, display *models.Display) (*models.Display, error) {
	query := `INSERT INTO displays (household_id, name, auth_token, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	display.CreatedAt = now
	display.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		display.HouseholdID, display.Name, display.AuthToken,
		nullableJSON(display.Settings), display.CreatedAt, display.UpdatedAt,
	).Scan(&display.ID, &display.CreatedAt, &display.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create display: %w", err)
	}
	return display, nil
}

func (r *displayRepository) GetByID(ctx context.Context, id int64) (*models.Display, error) {
	query := `SELECT ` + displayColumns + ` FROM displays WHERE id = $1`
	display, err := scanDisplay(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get display: %w", err)
	}
	return display, nil
}

func (r *displayRepository) GetByToken(ctx context.Context, token string) (*models.Display, error) {
	query := `SELECT ` + displayColumns + ` FROM displays WHERE auth_token = $1`
	display, err := scanDisplay(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get display by token: %w", err)
	}
	return display, nil
}

func (r *displayRepository) GetByHousehold(ctx context.Context, householdID int64) ([]*models.Display, error) {
	query := `SELECT ` + displayColumns + ` FROM displays WHERE household_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query displays: %w", err)
	}
	defer rows.Close()

	var displays []*models.Display
	for rows.Next() {
		display, err := scanDisplay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan display: %w", err)
		}
		displays = append(displays, display)
	}
	return displays, rows.Err()
}

func (r *displayRepository) Update(ctx context.Context, display *models.Display) (*models.Display, error) {
	query := `UPDATE displays SET name=$2, settings=$3, updated_at=$4 WHERE id=$1 RETURNING updated_at`
	display.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		display.ID, display.Name, nullableJSON(display.Settings), display.UpdatedAt,
	).Scan(&display.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update display: %w", err)
	}
	return display, nil
}

// UpdateToken swaps the kiosk credential without touching the rest of the
// record.
func (r *displayRepository) UpdateToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE displays SET auth_token=$2, updated_at=$3 WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id, token, time.Now())
	if err != nil {
		return fmt.Errorf("failed to rotate display token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("display %d not found", id)
	}
	return nil
}

func (r *displayRepository) Touch(ctx context.Context, id int64, seenAt time.Time) error {
	query := `UPDATE displays SET last_seen_at=$2 WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, query, id, seenAt); err != nil {
		return fmt.Errorf("failed to update display heartbeat: %w", err)
	}
	return nil
}

func (r *displayRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM displays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete display: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("display %d not found", id)
	}
	return nil
}
