package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStreak counts consecutive calendar days with recorded activity.
// Day boundaries are UTC; DayOf is the single place that normalizes.
type UserStreak struct {
	UserID           uuid.UUID
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate *time.Time
	Multiplier       float64
}

const (
	BaseMultiplier = 1.0
	MaxMultiplier  = 2.0
	MultiplierStep = 0.1
)

// StreakMultiplier grows by one step per consecutive day beyond the first,
// so a fresh or reset streak always sits at the base.
func StreakMultiplier(streak int) float64 {
	if streak <= 1 {
		return BaseMultiplier
	}
	m := BaseMultiplier + MultiplierStep*float64(streak-1)
	if m > MaxMultiplier {
		return MaxMultiplier
	}
	return m
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// IsYesterdayOf reports whether prev falls on the calendar day immediately
// before day.
func IsYesterdayOf(prev, day time.Time) bool {
	return DayOf(prev).AddDate(0, 0, 1).Equal(DayOf(day))
}
