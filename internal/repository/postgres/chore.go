package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type choreRepository struct {
	db *sql.DB
}

// NewChoreRepository creates a new chore repository
func NewChoreRepository(db *sql.DB) repository.ChoreRepository {
	return &choreRepository{db: db}
}

func (r *choreRepository) Create(ctx context.Context, chore *models.Chore) (*models.Chore, error) {
	query := `INSERT INTO chores (household_id, title, icon, points, recurrence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	chore.CreatedAt = now
	chore.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		chore.HouseholdID, chore.Title, chore.Icon, chore.Points,
		chore.Recurrence, chore.CreatedAt, chore.UpdatedAt,
	).Scan(&chore.ID, &chore.CreatedAt, &chore.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chore: %w", err)
	}
	return chore, nil
}

func (r *choreRepository) GetByID(ctx context.Context, id int64) (*models.Chore, error) {
	query := `SELECT id, household_id, title, icon, points, recurrence, created_at, updated_at
		FROM chores WHERE id = $1`
	chore := &models.Chore{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&chore.ID, &chore.HouseholdID, &chore.Title, &chore.Icon,
		&chore.Points, &chore.Recurrence, &chore.CreatedAt, &chore.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chore: %w", err)
	}
	return chore, nil
}

func (r *choreRepository) GetByHousehold(ctx context.Context, householdID int64) ([]*models.Chore, error) {
	query := `SELECT id, household_id, title, icon, points, recurrence, created_at, updated_at
		FROM chores WHERE household_id = $1 ORDER BY title ASC`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chores: %w", err)
	}
	defer rows.Close()

	var chores []*models.Chore
	for rows.Next() {
		chore := &models.Chore{}
		if err := rows.Scan(
			&chore.ID, &chore.HouseholdID, &chore.Title, &chore.Icon,
			&chore.Points, &chore.Recurrence, &chore.CreatedAt, &chore.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chore: %w", err)
		}
		chores = append(chores, chore)
	}
	return chores, rows.Err()
}

func (r *choreRepository) Update(ctx context.Context, chore *models.Chore) (*models.Chore, error) {
	query := `UPDATE chores SET title=$2, icon=$3, points=$4, recurrence=$5, updated_at=$6
		WHERE id=$1 RETURNING updated_at`
	chore.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		chore.ID, chore.Title, chore.Icon, chore.Points, chore.Recurrence, chore.UpdatedAt,
	).Scan(&chore.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update chore: %w", err)
	}
	return chore, nil
}

func (r *choreRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chore %d not found", id)
	}
	return nil
}
