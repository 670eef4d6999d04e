package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type photoSourceRepository struct {
	db *sql.DB
}

// NewPhotoSourceRepository creates a new photo source repository
func NewPhotoSourceRepository(db *sql.DB) repository.PhotoSourceRepository {
	return &photoSourceRepository{db: db}
}

const photoSourceColumns = `id, household_id, provider, album_id, album_name, enabled,
		last_synced_at, created_at, updated_at`

func scanPhotoSource(row interface{ Scan(...any) error }) (*models.PhotoSource, error) {
	source := &models.PhotoSource{}
	err := row.Scan(
		&source.ID, &source.HouseholdID, &source.Provider, &source.AlbumID,
		&source.AlbumName, &source.Enabled, &source.LastSyncedAt,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (r *photoSourceRepository) Create(ctx context.Context, source *models.PhotoSource) (*models.PhotoSource, error) {
	query := `INSERT INTO photo_sources (household_id, provider, album_id, album_name, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		source.HouseholdID, source.Provider, source.AlbumID, source.AlbumName,
		source.Enabled, source.CreatedAt, source.UpdatedAt,
	).Scan(&source.ID, &source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo source: %w", err)
	}
	return source, nil
}

func (r *photoSourceRepository) GetByID(ctx context.Context, id int64) (*models.PhotoSource, error) {
	query := `SELECT ` + photoSourceColumns + ` FROM photo_sources WHERE id = $1`
	source, err := scanPhotoSource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get photo source: %w", err)
	}
	return source, nil
}

func (r *photoSourceRepository) GetByHousehold(ctx context.Context, householdID int64) ([]*models.PhotoSource, error) {
	query := `SELECT ` + photoSourceColumns + ` FROM photo_sources
		WHERE household_id = $1 ORDER BY created_at ASC`
	return r.querySources(ctx, query, householdID)
}

func (r *photoSourceRepository) GetStale(ctx context.Context, olderThan time.Time) ([]*models.PhotoSource, error) {
	query := `SELECT ` + photoSourceColumns + ` FROM photo_sources
		WHERE enabled = true AND (last_synced_at IS NULL OR last_synced_at < $1)
		ORDER BY last_synced_at ASC NULLS FIRST`
	return r.querySources(ctx, query, olderThan)
}

func (r *photoSourceRepository) querySources(ctx context.Context, query string, args ...interface{}) ([]*models.PhotoSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.PhotoSource
	for rows.Next() {
		source, err := scanPhotoSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (r *photoSourceRepository) Update(ctx context.Context, source *models.PhotoSource) (*models.PhotoSource, error) {
	query := `UPDATE photo_sources SET album_name=$2, enabled=$3, updated_at=$4
		WHERE id=$1 RETURNING updated_at`
	source.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		source.ID, source.AlbumName, source.Enabled, source.UpdatedAt,
	).Scan(&source.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update photo source: %w", err)
	}
	return source, nil
}

func (r *photoSourceRepository) MarkSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	query := `UPDATE photo_sources SET last_synced_at=$2, updated_at=$2 WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, query, id, syncedAt); err != nil {
		return fmt.Errorf("failed to mark photo source synced: %w", err)
	}
	return nil
}

func (r *photoSourceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photo_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo source: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("photo source %d not found", id)
	}
	return nil
}
