package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestToRRule(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{"none", Rule{Frequency: FrequencyNone}, ""},
		{"daily", Rule{Frequency: FrequencyDaily}, "FREQ=DAILY"},
		{"weekly", Rule{Frequency: FrequencyWeekly}, "FREQ=WEEKLY"},
		{"weekly on monday", Rule{Frequency: FrequencyWeekly, Weekday: intp(1)}, "FREQ=WEEKLY;BYDAY=MO"},
		{"biweekly on saturday", Rule{Frequency: FrequencyBiweekly, Weekday: intp(6)}, "FREQ=WEEKLY;INTERVAL=2;BYDAY=SA"},
		{"monthly", Rule{Frequency: FrequencyMonthly}, "FREQ=MONTHLY"},
		{"monthly on the 15th", Rule{Frequency: FrequencyMonthly, MonthDay: intp(15)}, "FREQ=MONTHLY;BYMONTHDAY=15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.ToRRule()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToRRuleInvalid(t *testing.T) {
	_, err := Rule{Frequency: "yearly"}.ToRRule()
	assert.Error(t, err)

	_, err = Rule{Frequency: FrequencyWeekly, Weekday: intp(7)}.ToRRule()
	assert.Error(t, err)

	_, err = Rule{Frequency: FrequencyDaily, Weekday: intp(1)}.ToRRule()
	assert.Error(t, err)

	_, err = Rule{Frequency: FrequencyMonthly, MonthDay: intp(0)}.ToRRule()
	assert.Error(t, err)

	_, err = Rule{Frequency: FrequencyWeekly, MonthDay: intp(10)}.ToRRule()
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	rules := []Rule{
		{Frequency: FrequencyNone},
		{Frequency: FrequencyDaily},
		{Frequency: FrequencyWeekly, Weekday: intp(0)},
		{Frequency: FrequencyBiweekly, Weekday: intp(3)},
		{Frequency: FrequencyMonthly, MonthDay: intp(31)},
	}

	for _, rule := range rules {
		s, err := rule.ToRRule()
		require.NoError(t, err)

		parsed, err := Parse(s)
		require.NoError(t, err, "rule %q", s)
		assert.Equal(t, rule, parsed, "rule %q", s)
	}
}

func TestParse(t *testing.T) {
	rule, err := Parse("RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=FR")
	require.NoError(t, err)
	assert.Equal(t, FrequencyBiweekly, rule.Frequency)
	require.NotNil(t, rule.Weekday)
	assert.Equal(t, 5, *rule.Weekday)

	_, err = Parse("FREQ=YEARLY")
	assert.Error(t, err)

	_, err = Parse("FREQ=WEEKLY;INTERVAL=3")
	assert.Error(t, err)

	_, err = Parse("not an rrule")
	assert.Error(t, err)
}

func TestNextDaily(t *testing.T) {
	after := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	next, ok, err := Rule{Frequency: FrequencyDaily}.Next(after)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), next)
}

func TestNextWeeklyOnWeekday(t *testing.T) {
	// 2026-08-30 is a Sunday.
	after := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	next, ok, err := Rule{Frequency: FrequencyWeekly, Weekday: intp(3)}.Next(after)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Wednesday, next.Weekday())
	assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestNextNBiweekly(t *testing.T) {
	after := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	times, err := Rule{Frequency: FrequencyBiweekly}.NextN(after, 3)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2026, 9, 13, 9, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2026, 9, 27, 9, 0, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2026, 10, 11, 9, 0, 0, 0, time.UTC), times[2])
}

func TestNextMonthlyOnDay(t *testing.T) {
	after := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	times, err := Rule{Frequency: FrequencyMonthly, MonthDay: intp(31)}.NextN(after, 2)
	require.NoError(t, err)
	require.Len(t, times, 2)
	// August has a 31st; September does not, so the next hits are Aug 31
	// and Oct 31.
	assert.Equal(t, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2026, 10, 31, 12, 0, 0, 0, time.UTC), times[1])
}

func TestNextNone(t *testing.T) {
	_, ok, err := Rule{Frequency: FrequencyNone}.Next(time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
