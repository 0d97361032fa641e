package models

import (
	"time"
)

// ActivationRule scopes an alternate item list, a template assignment or a
// deco assignment to certain days. Empty sets match every value; all
// populated sets must match. The optional date range is inclusive of the
// start day and exclusive of the day after the end day.
type ActivationRule struct {
	// Weekdays uses time.Weekday numbering (Sunday=0)
	Weekdays  []int `json:"weekdays,omitempty" gorm:"type:text;serializer:json;column:weekdays"`
	Monthdays []int `json:"monthdays,omitempty" gorm:"type:text;serializer:json;column:monthdays"`
	// Months uses time.Month numbering (January=1)
	Months     []int      `json:"months,omitempty" gorm:"type:text;serializer:json;column:months"`
	RangeStart *time.Time `json:"range_start,omitempty" gorm:"type:datetime;column:range_start"`
	RangeEnd   *time.Time `json:"range_end,omitempty" gorm:"type:datetime;column:range_end"`
}

// Matches reports whether the rule is active at the given moment
func (r ActivationRule) Matches(t time.Time) bool {
	if len(r.Weekdays) > 0 && !containsInt(r.Weekdays, int(t.Weekday())) {
		return false
	}
	if len(r.Monthdays) > 0 && !containsInt(r.Monthdays, t.Day()) {
		return false
	}
	if len(r.Months) > 0 && !containsInt(r.Months, int(t.Month())) {
		return false
	}
	if r.RangeStart != nil {
		start := truncateToDay(*r.RangeStart)
		if t.Before(start) {
			return false
		}
	}
	if r.RangeEnd != nil {
		end := truncateToDay(*r.RangeEnd).AddDate(0, 0, 1)
		if !t.Before(end) {
			return false
		}
	}
	return true
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
