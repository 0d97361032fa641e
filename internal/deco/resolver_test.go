package deco

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowContains(t *testing.T) {
	// plain daytime window [09:00, 17:00)
	assert.True(t, windowContains(9*60, 17*60, 9*60))
	assert.True(t, windowContains(9*60, 17*60, 12*60))
	assert.False(t, windowContains(9*60, 17*60, 17*60), "end is exclusive")
	assert.False(t, windowContains(9*60, 17*60, 8*60))

	// overnight window [22:00, 06:00) wraps past midnight
	assert.True(t, windowContains(22*60, 6*60, 23*60))
	assert.True(t, windowContains(22*60, 6*60, 0))
	assert.True(t, windowContains(22*60, 6*60, 5*60+59))
	assert.False(t, windowContains(22*60, 6*60, 6*60))
	assert.False(t, windowContains(22*60, 6*60, 12*60))

	// degenerate window covers the whole day
	assert.True(t, windowContains(10*60, 10*60, 0))
	assert.True(t, windowContains(10*60, 10*60, 23*60))
}
