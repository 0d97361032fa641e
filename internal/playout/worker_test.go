package playout

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/castawaytv/castaway/internal/models"
)

func rebuildMinutes(m int) *int {
	return &m
}

func workerAt(now time.Time) *Worker {
	w := NewWorker(nil, nil, time.Minute)
	w.now = func() time.Time { return now }
	return w
}

func TestDailyRebuildDueNilCutoff(t *testing.T) {
	w := workerAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	p := &models.Playout{ID: uuid.New()}

	assert.False(t, w.dailyRebuildDue(p), "no cutoff means no daily rebuild")
}

func TestDailyRebuildDueBeforeCutoff(t *testing.T) {
	w := workerAt(time.Date(2026, 3, 10, 3, 59, 0, 0, time.UTC))
	p := &models.Playout{ID: uuid.New(), DailyRebuildMinutes: rebuildMinutes(4 * 60)}

	assert.False(t, w.dailyRebuildDue(p))
}

func TestDailyRebuildDueAfterCutoff(t *testing.T) {
	w := workerAt(time.Date(2026, 3, 10, 4, 1, 0, 0, time.UTC))
	p := &models.Playout{ID: uuid.New(), DailyRebuildMinutes: rebuildMinutes(4 * 60)}

	assert.True(t, w.dailyRebuildDue(p))
}

func TestDailyRebuildRunsOncePerDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)
	w := workerAt(now)
	p := &models.Playout{ID: uuid.New(), DailyRebuildMinutes: rebuildMinutes(4 * 60)}

	assert.True(t, w.dailyRebuildDue(p))

	// a reset after today's cutoff satisfies today
	w.lastReset[p.ID] = now
	assert.False(t, w.dailyRebuildDue(p))

	// the next day's cutoff makes it due again
	w.now = func() time.Time { return now.Add(24 * time.Hour) }
	assert.True(t, w.dailyRebuildDue(p))
}

func TestDailyRebuildStaleResetFromYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	w := workerAt(now)
	p := &models.Playout{ID: uuid.New(), DailyRebuildMinutes: rebuildMinutes(4 * 60)}

	// yesterday's reset does not satisfy today's cutoff
	w.lastReset[p.ID] = now.Add(-24 * time.Hour)
	assert.True(t, w.dailyRebuildDue(p))
}
