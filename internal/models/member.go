package models

import "time"

// MemberRole defines what a member may manage within a household
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Member represents a person in a household
type Member struct {
	ID          int64      `json:"id" db:"id"`
	HouseholdID int64      `json:"household_id" db:"household_id"`
	Name        string     `json:"name" db:"name"`
	Email       string     `json:"email" db:"email"`
	Color       string     `json:"color" db:"color"`
	Role        MemberRole `json:"role" db:"role"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdmin returns true if the member can manage household settings
func (m *Member) IsAdmin() bool {
	return m.Role == MemberRoleAdmin
}
