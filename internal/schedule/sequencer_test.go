package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/castawaytv/castaway/internal/models"
)

func minutes(m int) *int {
	return &m
}

func TestCursorClampsStaleIndex(t *testing.T) {
	items := []*models.ScheduleItem{{Position: 0}, {Position: 1}}

	c := NewCursor(items, 5)
	assert.Equal(t, 0, c.Index, "index past the list should reset to the head")

	c = NewCursor(items, -1)
	assert.Equal(t, 0, c.Index)

	c = NewCursor(items, 1)
	assert.Equal(t, 1, c.Index, "valid index should survive")
}

func TestCursorAdvanceWraps(t *testing.T) {
	items := []*models.ScheduleItem{{Position: 0}, {Position: 1}, {Position: 2}}
	c := NewCursor(items, 2)

	c.Advance()
	assert.Equal(t, 0, c.Index)
}

func TestItemStartWithoutFixedStart(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	item := &models.ScheduleItem{}

	assert.Equal(t, anchor, ItemStart(item, anchor))
}

func TestItemStartStrictWaitsForWallClock(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	// 20:00 today is still ahead
	item := &models.ScheduleItem{
		StartMinutes:       minutes(20 * 60),
		FixedStartBehavior: models.FixedStartStrict,
	}
	assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), ItemStart(item, anchor))

	// 08:00 already passed, strict wraps to tomorrow
	item.StartMinutes = minutes(8 * 60)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), ItemStart(item, anchor))
}

func TestItemStartFlexibleStartsImmediatelyWhenLate(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	item := &models.ScheduleItem{
		StartMinutes:       minutes(8 * 60),
		FixedStartBehavior: models.FixedStartFlexible,
	}

	assert.Equal(t, anchor, ItemStart(item, anchor),
		"flexible item running late starts now instead of waiting a day")

	item.StartMinutes = minutes(20 * 60)
	assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), ItemStart(item, anchor))
}

func TestItemStartExactlyOnTheMinute(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	item := &models.ScheduleItem{
		StartMinutes:       minutes(20 * 60),
		FixedStartBehavior: models.FixedStartStrict,
	}

	assert.Equal(t, anchor, ItemStart(item, anchor),
		"an occurrence exactly at the anchor starts immediately")
}

func TestNextFixedStart(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	items := []*models.ScheduleItem{
		{Position: 0},
		{Position: 1, StartMinutes: minutes(20 * 60)},
		{Position: 2},
		{Position: 3, StartMinutes: minutes(6 * 60)},
	}

	// from index 0 the next fixed start is item 1 at 20:00 today
	next := NextFixedStart(items, 0, after)
	if assert.NotNil(t, next) {
		assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), *next)
	}

	// from index 1 the scan reaches item 3; 06:00 already passed so it
	// resolves to tomorrow
	next = NextFixedStart(items, 1, after)
	if assert.NotNil(t, next) {
		assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), *next)
	}
}

func TestNextFixedStartNoFixedItems(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	items := []*models.ScheduleItem{{Position: 0}, {Position: 1}}

	assert.Nil(t, NextFixedStart(items, 0, after))
	assert.Nil(t, NextFixedStart(nil, 0, after))
}

func TestNextFixedStartIsStrictlyAfter(t *testing.T) {
	// the anchor sits exactly on the only fixed start; the next
	// occurrence must be tomorrow, not now
	after := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	items := []*models.ScheduleItem{
		{Position: 0, StartMinutes: minutes(20 * 60)},
	}

	next := NextFixedStart(items, 0, after)
	if assert.NotNil(t, next) {
		assert.Equal(t, time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC), *next)
	}
}
