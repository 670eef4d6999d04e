package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type householdRepository struct {
	db *sql.DB
}

// NewHouseholdRepository creates a new household repository
func NewHouseholdRepository(db *sql.DB) repository.HouseholdRepository {
	return &householdRepository{db: db}
}

func (r *householdRepository) Create(ctx context.Context, household *models.Household) (*models.Household, error) {
	query := `INSERT INTO households (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	household.CreatedAt = now
	household.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		household.Name, household.CreatedAt, household.UpdatedAt,
	).Scan(&household.ID, &household.CreatedAt, &household.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}
	return household, nil
}

func (r *householdRepository) GetByID(ctx context.Context, id int64) (*models.Household, error) {
	query := `SELECT id, name, created_at, updated_at FROM households WHERE id = $1`
	household := &models.Household{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&household.ID, &household.Name, &household.CreatedAt, &household.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return household, nil
}

func (r *householdRepository) Update(ctx context.Context, household *models.Household) (*models.Household, error) {
	query := `UPDATE households SET name=$2, updated_at=$3 WHERE id=$1 RETURNING updated_at`
	household.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		household.ID, household.Name, household.UpdatedAt,
	).Scan(&household.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update household: %w", err)
	}
	return household, nil
}

func (r *householdRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM households WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("household %d not found", id)
	}
	return nil
}
