package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
)

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `INSERT INTO members (household_id, name, email, color, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	if member.Role == "" {
		member.Role = models.MemberRoleMember
	}

	err := r.db.QueryRowContext(ctx, query,
		member.HouseholdID, member.Name, member.Email, member.Color,
		member.Role, member.IsActive, member.CreatedAt, member.UpdatedAt,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	return member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `SELECT id, household_id, name, email, color, role, is_active, created_at, updated_at
		FROM members WHERE id = $1`
	member := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&member.ID, &member.HouseholdID, &member.Name, &member.Email, &member.Color,
		&member.Role, &member.IsActive, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

func (r *memberRepository) GetByEmail(ctx context.Context, householdID int64, email string) (*models.Member, error) {
	query := `SELECT id, household_id, name, email, color, role, is_active, created_at, updated_at
		FROM members WHERE household_id = $1 AND lower(email) = lower($2)`
	member := &models.Member{}
	err := r.db.QueryRowContext(ctx, query, householdID, email).Scan(
		&member.ID, &member.HouseholdID, &member.Name, &member.Email, &member.Color,
		&member.Role, &member.IsActive, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return member, nil
}

func (r *memberRepository) GetByHousehold(ctx context.Context, householdID int64) ([]*models.Member, error) {
	query := `SELECT id, household_id, name, email, color, role, is_active, created_at, updated_at
		FROM members WHERE household_id = $1 ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(
			&member.ID, &member.HouseholdID, &member.Name, &member.Email, &member.Color,
			&member.Role, &member.IsActive, &member.CreatedAt, &member.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `UPDATE members SET name=$2, email=$3, color=$4, role=$5, is_active=$6, updated_at=$7
		WHERE id=$1 RETURNING updated_at`
	member.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		member.ID, member.Name, member.Email, member.Color,
		member.Role, member.IsActive, member.UpdatedAt,
	).Scan(&member.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("member %d not found", id)
	}
	return nil
}
