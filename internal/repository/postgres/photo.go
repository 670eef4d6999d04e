package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type photoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *sql.DB) repository.PhotoRepository {
	return &photoRepository{db: db}
}

const photoColumns = `id, household_id, photo_source_id, external_id, storage_path, size_bytes,
		content_type, enabled, created_at, updated_at`

func scanPhoto(row interface{ Scan(...any) error }) (*models.Photo, error) {
	photo := &models.Photo{}
	err := row.Scan(
		&photo.ID, &photo.HouseholdID, &photo.PhotoSourceID, &photo.ExternalID,
		&photo.StoragePath, &photo.SizeBytes, &photo.ContentType,
		&photo.Enabled, &photo.CreatedAt, &photo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query := `INSERT INTO photos (household_id, photo_source_id, external_id, storage_path, size_bytes,
			content_type, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	photo.CreatedAt = now
	photo.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		photo.HouseholdID, photo.PhotoSourceID, photo.ExternalID,
		photo.StoragePath, photo.SizeBytes, photo.ContentType,
		photo.Enabled, photo.CreatedAt, photo.UpdatedAt,
	).Scan(&photo.ID, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}
	return photo, nil
}

func (r *photoRepository) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`
	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

func (r *photoRepository) GetByHousehold(ctx context.Context, householdID int64, onlyEnabled bool) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE household_id = $1`
	if onlyEnabled {
		query += " AND enabled = true"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

// TotalSizeByHousehold sums stored photo sizes for quota accounting.
func (r *photoRepository) TotalSizeByHousehold(ctx context.Context, householdID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM photos WHERE household_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, householdID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum photo sizes: %w", err)
	}
	return total, nil
}

func (r *photoRepository) ExternalIDsBySource(ctx context.Context, sourceID int64) (map[string]bool, error) {
	query := `SELECT external_id FROM photos WHERE photo_source_id = $1`
	rows, err := r.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query imported photo ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan photo id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *photoRepository) Update(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query := `UPDATE photos SET enabled=$2, updated_at=$3 WHERE id=$1 RETURNING updated_at`
	photo.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		photo.ID, photo.Enabled, photo.UpdatedAt,
	).Scan(&photo.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}
	return photo, nil
}

func (r *photoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("photo %d not found", id)
	}
	return nil
}
