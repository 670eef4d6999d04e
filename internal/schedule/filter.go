// Package schedule groups and filters chore assignments for the calendar
// and chore-board views.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/cameron-nye/hearth/internal/models"
)

// Bucket selects a date-range window relative to a reference day.
type Bucket string

const (
	BucketToday  Bucket = "today"
	BucketNext7  Bucket = "next7"
	BucketNext30 Bucket = "next30"
	BucketAll    Bucket = "all"
)

// ParseBucket validates a bucket query value, defaulting to "all" for the
// empty string.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case "":
		return BucketAll, nil
	case BucketToday, BucketNext7, BucketNext30, BucketAll:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("invalid bucket %q", s)
	}
}

// Filter narrows a list of assignments. MemberID filters by assignee,
// Completed by completion state; Bucket bounds the due date against Now.
type Filter struct {
	MemberID  *int64
	Completed *bool
	Bucket    Bucket
	Now       time.Time
}

// Apply returns the assignments matching the filter, ordered by due date
// then id.
func Apply(assignments []*models.ChoreAssignment, f Filter) []*models.ChoreAssignment {
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	dayStart := startOfDay(now)

	var dayEnd time.Time
	switch f.Bucket {
	case BucketToday:
		dayEnd = dayStart.AddDate(0, 0, 1)
	case BucketNext7:
		dayEnd = dayStart.AddDate(0, 0, 8)
	case BucketNext30:
		dayEnd = dayStart.AddDate(0, 0, 31)
	}

	out := make([]*models.ChoreAssignment, 0, len(assignments))
	for _, a := range assignments {
		if f.MemberID != nil {
			if a.MemberID == nil || *a.MemberID != *f.MemberID {
				continue
			}
		}
		if f.Completed != nil && a.IsCompleted() != *f.Completed {
			continue
		}
		if !dayEnd.IsZero() {
			if a.DueDate.Before(dayStart) || !a.DueDate.Before(dayEnd) {
				continue
			}
		}
		out = append(out, a)
	}

	sortAssignments(out)
	return out
}

// GroupByDay partitions assignments into per-day buckets keyed "2006-01-02".
// Each group keeps the due-date/id ordering.
func GroupByDay(assignments []*models.ChoreAssignment) map[string][]*models.ChoreAssignment {
	groups := make(map[string][]*models.ChoreAssignment)
	for _, a := range assignments {
		key := a.DueDate.Format("2006-01-02")
		groups[key] = append(groups[key], a)
	}
	for _, group := range groups {
		sortAssignments(group)
	}
	return groups
}

// GroupByWeek partitions assignments into ISO-week buckets keyed like
// "2026-W35".
func GroupByWeek(assignments []*models.ChoreAssignment) map[string][]*models.ChoreAssignment {
	groups := make(map[string][]*models.ChoreAssignment)
	for _, a := range assignments {
		year, week := a.DueDate.ISOWeek()
		key := fmt.Sprintf("%04d-W%02d", year, week)
		groups[key] = append(groups[key], a)
	}
	for _, group := range groups {
		sortAssignments(group)
	}
	return groups
}

func sortAssignments(items []*models.ChoreAssignment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].DueDate.Equal(items[j].DueDate) {
			return items[i].DueDate.Before(items[j].DueDate)
		}
		return items[i].ID < items[j].ID
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
