// Package recurrence translates the simple repeat configuration used by
// chores and events to and from iCalendar RRULE strings, and computes
// concrete occurrences. All rule evaluation is delegated to
// github.com/teambition/rrule-go.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency defines how often a rule repeats
type Frequency string

const (
	FrequencyNone     Frequency = "none"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Rule is the user-facing repeat configuration. Weekday (0=Sunday..6=Saturday)
// applies to weekly and biweekly rules; MonthDay (1..31) applies to monthly
// rules.
type Rule struct {
	Frequency Frequency `json:"frequency"`
	Weekday   *int      `json:"weekday,omitempty"`
	MonthDay  *int      `json:"month_day,omitempty"`
}

// rrule-go weekday constants indexed by our 0=Sunday convention.
var weekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Validate checks field ranges and field/frequency combinations.
func (r Rule) Validate() error {
	switch r.Frequency {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
	default:
		return fmt.Errorf("invalid frequency %q", r.Frequency)
	}
	if r.Weekday != nil {
		if r.Frequency != FrequencyWeekly && r.Frequency != FrequencyBiweekly {
			return fmt.Errorf("weekday is only valid for weekly or biweekly rules")
		}
		if *r.Weekday < 0 || *r.Weekday > 6 {
			return fmt.Errorf("weekday must be between 0 and 6, got %d", *r.Weekday)
		}
	}
	if r.MonthDay != nil {
		if r.Frequency != FrequencyMonthly {
			return fmt.Errorf("month_day is only valid for monthly rules")
		}
		if *r.MonthDay < 1 || *r.MonthDay > 31 {
			return fmt.Errorf("month_day must be between 1 and 31, got %d", *r.MonthDay)
		}
	}
	return nil
}

// ToRRule renders the rule as an RRULE string. A "none" rule renders as the
// empty string.
func (r Rule) ToRRule() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.Frequency == FrequencyNone {
		return "", nil
	}

	parts := []string{}
	switch r.Frequency {
	case FrequencyDaily:
		parts = append(parts, "FREQ=DAILY")
	case FrequencyWeekly:
		parts = append(parts, "FREQ=WEEKLY")
	case FrequencyBiweekly:
		parts = append(parts, "FREQ=WEEKLY", "INTERVAL=2")
	case FrequencyMonthly:
		parts = append(parts, "FREQ=MONTHLY")
	}
	if r.Weekday != nil {
		parts = append(parts, "BYDAY="+weekdays[*r.Weekday].String())
	}
	if r.MonthDay != nil {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", *r.MonthDay))
	}
	return strings.Join(parts, ";"), nil
}

// Parse converts an RRULE string back into a Rule. The empty string parses
// as a "none" rule. Rules outside the supported shape (unsupported FREQ or
// INTERVAL) are rejected.
func Parse(s string) (Rule, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "RRULE:"))
	if s == "" {
		return Rule{Frequency: FrequencyNone}, nil
	}

	opts, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid recurrence rule %q: %w", s, err)
	}

	rule := Rule{}
	interval := opts.Interval
	if interval == 0 {
		interval = 1
	}

	switch opts.Freq {
	case rrule.DAILY:
		if interval != 1 {
			return Rule{}, fmt.Errorf("unsupported daily interval %d", interval)
		}
		rule.Frequency = FrequencyDaily
	case rrule.WEEKLY:
		switch interval {
		case 1:
			rule.Frequency = FrequencyWeekly
		case 2:
			rule.Frequency = FrequencyBiweekly
		default:
			return Rule{}, fmt.Errorf("unsupported weekly interval %d", interval)
		}
	case rrule.MONTHLY:
		if interval != 1 {
			return Rule{}, fmt.Errorf("unsupported monthly interval %d", interval)
		}
		rule.Frequency = FrequencyMonthly
	default:
		return Rule{}, fmt.Errorf("unsupported frequency in rule %q", s)
	}

	if len(opts.Byweekday) > 0 {
		if len(opts.Byweekday) > 1 {
			return Rule{}, fmt.Errorf("multiple weekdays are not supported")
		}
		for i, wd := range weekdays {
			if wd == opts.Byweekday[0] {
				day := i
				rule.Weekday = &day
				break
			}
		}
	}
	if len(opts.Bymonthday) > 0 {
		if len(opts.Bymonthday) > 1 {
			return Rule{}, fmt.Errorf("multiple month days are not supported")
		}
		day := opts.Bymonthday[0]
		if day < 1 || day > 31 {
			return Rule{}, fmt.Errorf("month_day must be between 1 and 31, got %d", day)
		}
		rule.MonthDay = &day
	}

	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// Next computes the first occurrence strictly after the reference time. The
// zero time and false are returned for "none" rules.
func (r Rule) Next(after time.Time) (time.Time, bool, error) {
	times, err := r.NextN(after, 1)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(times) == 0 {
		return time.Time{}, false, nil
	}
	return times[0], true, nil
}

// NextN computes up to n occurrences strictly after the reference time.
func (r Rule) NextN(after time.Time, n int) ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Frequency == FrequencyNone || n <= 0 {
		return nil, nil
	}

	opt := rrule.ROption{Dtstart: after}
	switch r.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case FrequencyBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	}
	if r.Weekday != nil {
		opt.Byweekday = []rrule.Weekday{weekdays[*r.Weekday]}
	}
	if r.MonthDay != nil {
		opt.Bymonthday = []int{*r.MonthDay}
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	iter := rr.Iterator()
	out := make([]time.Time, 0, n)
	for len(out) < n {
		t, ok := iter()
		if !ok {
			break
		}
		if !t.After(after) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
