package schedule

import (
	"time"

	"github.com/castawaytv/castaway/internal/models"
)

// Cursor walks a classic item list cyclically. The index persists on
// the playout anchor so sequencing resumes exactly where the previous
// build stopped.
type Cursor struct {
	Items []*models.ScheduleItem
	Index int
}

// NewCursor creates a cursor positioned at the given anchor index,
// clamping when the item list shrank since the index was persisted
func NewCursor(items []*models.ScheduleItem, index int) *Cursor {
	if len(items) > 0 && (index < 0 || index >= len(items)) {
		index = 0
	}
	return &Cursor{Items: items, Index: index}
}

// Current returns the item under the cursor
func (c *Cursor) Current() *models.ScheduleItem {
	if len(c.Items) == 0 {
		return nil
	}
	return c.Items[c.Index]
}

// Advance moves to the next item, wrapping to the head of the list
func (c *Cursor) Advance() {
	if len(c.Items) == 0 {
		return
	}
	c.Index = (c.Index + 1) % len(c.Items)
}

// ItemStart computes when an item begins given the instant the
// previous item finished. Items without a fixed start begin
// immediately. Fixed starts resolve against the anchor's day: strict
// items wait for the wall-clock time, wrapping to the next day when
// today's occurrence already passed; flexible items start immediately
// when running late instead of waiting a day.
func ItemStart(item *models.ScheduleItem, anchor time.Time) time.Time {
	if item.StartMinutes == nil {
		return anchor
	}
	occurrence := atMinutes(anchor, *item.StartMinutes)

	if item.FixedStartBehavior == models.FixedStartFlexible {
		if occurrence.After(anchor) {
			return occurrence
		}
		return anchor
	}

	if !occurrence.Before(anchor) {
		return occurrence
	}
	return occurrence.Add(24 * time.Hour)
}

// NextFixedStart returns the wall-clock instant of the next fixed
// start strictly after the given time, scanning the list cyclically
// from the item after index. Nil when the list has no fixed starts.
func NextFixedStart(items []*models.ScheduleItem, index int, after time.Time) *time.Time {
	if len(items) == 0 {
		return nil
	}
	for step := 1; step <= len(items); step++ {
		item := items[(index+step)%len(items)]
		if item.StartMinutes == nil {
			continue
		}
		occurrence := atMinutes(after, *item.StartMinutes)
		for !occurrence.After(after) {
			occurrence = occurrence.Add(24 * time.Hour)
		}
		return &occurrence
	}
	return nil
}

// atMinutes returns the instant at the given minutes past midnight on
// the same day as the reference time
func atMinutes(ref time.Time, minutes int) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return day.Add(time.Duration(minutes) * time.Minute)
}
