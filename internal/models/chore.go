package models

import "time"

// Chore is a task definition. Recurrence, when set, is an RRULE string that
// drives generation of future assignments.
type Chore struct {
	ID          int64     `json:"id" db:"id"`
	HouseholdID int64     `json:"household_id" db:"household_id"`
	Title       string    `json:"title" db:"title"`
	Icon        string    `json:"icon" db:"icon"`
	Points      int       `json:"points" db:"points"`
	Recurrence  string    `json:"recurrence" db:"recurrence"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ChoreAssignment is a scheduled occurrence of a chore. MemberID is nil for
// unassigned occurrences; CompletedAt is nil while the chore is open.
type ChoreAssignment struct {
	ID          int64      `json:"id" db:"id"`
	ChoreID     int64      `json:"chore_id" db:"chore_id"`
	MemberID    *int64     `json:"member_id" db:"member_id"`
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Chore *Chore `json:"chore,omitempty"`
}

// IsCompleted returns true once the assignment has been marked done
func (a *ChoreAssignment) IsCompleted() bool {
	return a.CompletedAt != nil
}

// IsOverdue returns true if the assignment is open and past its due date
func (a *ChoreAssignment) IsOverdue(now time.Time) bool {
	return !a.IsCompleted() && a.DueDate.Before(now)
}
