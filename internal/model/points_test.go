package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelForPoints(t *testing.T) {
	tests := []struct {
		total int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{101, 2},
		{199, 2},
		{200, 3},
		{1000, 11},
		{-50, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForPoints(tt.total), "total=%d", tt.total)
	}
}

func TestStreakMultiplier(t *testing.T) {
	// A fresh or reset streak sits at the base multiplier.
	assert.InDelta(t, 1.0, StreakMultiplier(1), 1e-9)
	assert.InDelta(t, 1.0, StreakMultiplier(0), 1e-9)

	assert.InDelta(t, 1.1, StreakMultiplier(2), 1e-9)
	assert.InDelta(t, 1.5, StreakMultiplier(6), 1e-9)
	assert.InDelta(t, 2.0, StreakMultiplier(11), 1e-9)

	// Capped past eleven days.
	assert.InDelta(t, 2.0, StreakMultiplier(12), 1e-9)
	assert.InDelta(t, 2.0, StreakMultiplier(365), 1e-9)
}

func TestDayBoundaries(t *testing.T) {
	lateEvening := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	justAfterMidnight := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)

	assert.False(t, SameDay(lateEvening, justAfterMidnight))
	assert.True(t, IsYesterdayOf(lateEvening, justAfterMidnight))

	// Non-UTC wall clocks normalize to the same UTC day.
	berlin := time.FixedZone("CET", 3600)
	localMorning := time.Date(2026, 3, 10, 0, 30, 0, 0, berlin)
	assert.True(t, SameDay(localMorning, lateEvening))

	twoApart := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	assert.False(t, IsYesterdayOf(lateEvening, twoApart))
	assert.False(t, IsYesterdayOf(twoApart, lateEvening))
}
