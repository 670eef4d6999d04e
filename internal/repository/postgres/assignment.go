package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type assignmentRepository struct {
	db *sql.DB
}

// NewChoreAssignmentRepository creates a new chore assignment repository
func NewChoreAssignmentRepository(db *sql.DB) repository.ChoreAssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.ChoreAssignment) (*models.ChoreAssignment, error) {
	query := `INSERT INTO chore_assignments (chore_id, member_id, due_date, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		assignment.ChoreID, assignment.MemberID, assignment.DueDate,
		assignment.CompletedAt, assignment.CreatedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID, &assignment.CreatedAt, &assignment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chore assignment: %w", err)
	}
	return assignment, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id int64) (*models.ChoreAssignment, error) {
	query := `SELECT a.id, a.chore_id, a.member_id, a.due_date, a.completed_at, a.created_at, a.updated_at,
			c.id, c.household_id, c.title, c.icon, c.points, c.recurrence, c.created_at, c.updated_at
		FROM chore_assignments a
		JOIN chores c ON c.id = a.chore_id
		WHERE a.id = $1`
	assignment, err := scanAssignmentWithChore(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chore assignment: %w", err)
	}
	return assignment, nil
}

func (r *assignmentRepository) GetByChore(ctx context.Context, choreID int64) ([]*models.ChoreAssignment, error) {
	query := `SELECT a.id, a.chore_id, a.member_id, a.due_date, a.completed_at, a.created_at, a.updated_at,
			c.id, c.household_id, c.title, c.icon, c.points, c.recurrence, c.created_at, c.updated_at
		FROM chore_assignments a
		JOIN chores c ON c.id = a.chore_id
		WHERE a.chore_id = $1
		ORDER BY a.due_date ASC, a.id ASC`
	return r.queryAssignments(ctx, query, choreID)
}

func (r *assignmentRepository) GetByHousehold(ctx context.Context, householdID int64, filters repository.AssignmentFilters) ([]*models.ChoreAssignment, error) {
	query := `SELECT a.id, a.chore_id, a.member_id, a.due_date, a.completed_at, a.created_at, a.updated_at,
			c.id, c.household_id, c.title, c.icon, c.points, c.recurrence, c.created_at, c.updated_at
		FROM chore_assignments a
		JOIN chores c ON c.id = a.chore_id
		WHERE c.household_id = $1`
	args := []interface{}{householdID}
	argIdx := 2

	if filters.MemberID != nil {
		query += fmt.Sprintf(" AND a.member_id = $%d", argIdx)
		args = append(args, *filters.MemberID)
		argIdx++
	}
	if filters.Completed != nil {
		if *filters.Completed {
			query += " AND a.completed_at IS NOT NULL"
		} else {
			query += " AND a.completed_at IS NULL"
		}
	}
	if filters.From != nil {
		query += fmt.Sprintf(" AND a.due_date >= $%d", argIdx)
		args = append(args, *filters.From)
		argIdx++
	}
	if filters.To != nil {
		query += fmt.Sprintf(" AND a.due_date <= $%d", argIdx)
		args = append(args, *filters.To)
		argIdx++
	}

	query += " ORDER BY a.due_date ASC, a.id ASC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}

	return r.queryAssignments(ctx, query, args...)
}

func (r *assignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*models.ChoreAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chore assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.ChoreAssignment
	for rows.Next() {
		assignment, err := scanAssignmentWithChore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chore assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func scanAssignmentWithChore(row interface{ Scan(...any) error }) (*models.ChoreAssignment, error) {
	assignment := &models.ChoreAssignment{}
	chore := &models.Chore{}
	err := row.Scan(
		&assignment.ID, &assignment.ChoreID, &assignment.MemberID,
		&assignment.DueDate, &assignment.CompletedAt,
		&assignment.CreatedAt, &assignment.UpdatedAt,
		&chore.ID, &chore.HouseholdID, &chore.Title, &chore.Icon,
		&chore.Points, &chore.Recurrence, &chore.CreatedAt, &chore.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	assignment.Chore = chore
	return assignment, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.ChoreAssignment) (*models.ChoreAssignment, error) {
	query := `UPDATE chore_assignments SET member_id=$2, due_date=$3, completed_at=$4, updated_at=$5
		WHERE id=$1 RETURNING updated_at`
	assignment.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		assignment.ID, assignment.MemberID, assignment.DueDate,
		assignment.CompletedAt, assignment.UpdatedAt,
	).Scan(&assignment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update chore assignment: %w", err)
	}
	return assignment, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chore_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chore assignment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chore assignment %d not found", id)
	}
	return nil
}
