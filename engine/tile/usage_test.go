package tile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageMarkerExpiresOnlyWhenUnused(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewUsageMarker(nil)
	assert.True(t, m.IsExpired(now))
	assert.True(t, m.LastTouched().IsZero())

	m.Mark(1, now)
	m.Mark(2, now.Add(time.Second))
	assert.False(t, m.IsExpired(now.Add(time.Hour)), "an in-use marker never expires")
	assert.True(t, m.InUseBy(1))
	assert.Equal(t, now.Add(time.Second), m.LastTouched())

	m.ClearUsageForViewport(1)
	assert.False(t, m.IsExpired(now))
	m.ClearUsageForViewport(2)
	assert.True(t, m.IsExpired(now))
	assert.False(t, m.InUse())
	assert.Equal(t, now.Add(time.Second), m.LastTouched(), "clearing keeps the last touch")

	m.ClearUsageForViewport(3)
	assert.True(t, m.IsExpired(now))
}

func TestUsageMarkerLastTouchedNeverGoesBack(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewUsageMarker(nil)
	m.Mark(1, now)
	m.Mark(2, now.Add(-time.Second))
	assert.Equal(t, now, m.LastTouched())
}

func TestUsageTrackerClearViewport(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := NewUsageTracker()
	a, b := NewUsageMarker(tracker), NewUsageMarker(tracker)

	a.Mark(1, now)
	b.Mark(1, now)
	b.Mark(2, now)
	require.Equal(t, 2, tracker.MarkerCount(1))
	require.Equal(t, 1, tracker.MarkerCount(2))
	assert.Equal(t, 2, tracker.Viewports())

	tracker.ClearViewport(1)
	assert.True(t, a.IsExpired(now))
	assert.False(t, b.IsExpired(now))
	assert.True(t, b.InUseBy(2))
	assert.Equal(t, 0, tracker.MarkerCount(1))

	b.ClearUsageForViewport(2)
	assert.Equal(t, 0, tracker.Viewports())
}

func TestUsageMarkerDiscard(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := NewUsageTracker()
	m := NewUsageMarker(tracker)
	m.Mark(1, now)
	m.Mark(2, now)

	m.Discard()
	assert.True(t, m.IsExpired(now))
	assert.Equal(t, 0, tracker.Viewports())
}
