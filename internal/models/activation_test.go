package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActivationRuleEmptyMatchesEverything(t *testing.T) {
	rule := ActivationRule{}

	assert.True(t, rule.Matches(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, rule.Matches(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestActivationRuleWeekdays(t *testing.T) {
	// Saturday=6, Sunday=0
	rule := ActivationRule{Weekdays: []int{0, 6}}

	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Saturday, saturday.Weekday())
	assert.True(t, rule.Matches(saturday))
	assert.True(t, rule.Matches(saturday.Add(24*time.Hour)))

	monday := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)
	assert.False(t, rule.Matches(monday))
}

func TestActivationRuleMonthdaysAndMonths(t *testing.T) {
	rule := ActivationRule{Monthdays: []int{1, 15}, Months: []int{12}}

	assert.True(t, rule.Matches(time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC)))
	assert.False(t, rule.Matches(time.Date(2026, 12, 14, 8, 0, 0, 0, time.UTC)),
		"wrong day of month")
	assert.False(t, rule.Matches(time.Date(2026, 11, 15, 8, 0, 0, 0, time.UTC)),
		"wrong month")
}

func TestActivationRuleDateRange(t *testing.T) {
	start := time.Date(2026, 12, 20, 17, 45, 0, 0, time.UTC)
	end := time.Date(2026, 12, 26, 3, 0, 0, 0, time.UTC)
	rule := ActivationRule{RangeStart: &start, RangeEnd: &end}

	// the range covers whole days regardless of the time component
	assert.True(t, rule.Matches(time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)),
		"start day is inclusive from midnight")
	assert.True(t, rule.Matches(time.Date(2026, 12, 26, 23, 59, 0, 0, time.UTC)),
		"end day is inclusive to midnight")
	assert.False(t, rule.Matches(time.Date(2026, 12, 19, 23, 59, 0, 0, time.UTC)))
	assert.False(t, rule.Matches(time.Date(2026, 12, 27, 0, 0, 0, 0, time.UTC)))
}

func TestActivationRuleAllConditionsMustMatch(t *testing.T) {
	rule := ActivationRule{
		Weekdays: []int{int(time.Friday)},
		Months:   []int{10},
	}

	friday := time.Date(2026, 10, 2, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Friday, friday.Weekday())
	assert.True(t, rule.Matches(friday))

	novemberFriday := time.Date(2026, 11, 6, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Friday, novemberFriday.Weekday())
	assert.False(t, rule.Matches(novemberFriday))
}
