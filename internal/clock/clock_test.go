package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())

	c.Advance(15 * time.Minute)
	assert.Equal(t, start.Add(15*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSystemUsesLocation(t *testing.T) {
	loc := time.FixedZone("BST", 6*60*60)
	now := NewSystem(loc).Now()
	assert.Equal(t, loc, now.Location())

	assert.Equal(t, time.UTC, NewSystem(nil).Now().Location())
}

func TestFormatting(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "2025-03-10", DateKey(ts))
	assert.Equal(t, "09:05:07", TimeOfDay(ts))
	assert.Equal(t, "2025-03-10T09:05:07Z", ISO(ts))
}
