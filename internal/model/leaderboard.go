package model

import (
	"time"

	"github.com/google/uuid"
)

type LeaderboardPeriod string

const (
	PeriodDaily   LeaderboardPeriod = "daily"
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "all_time"
)

func (p LeaderboardPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}

// WindowStart returns the start of the rolling window points are summed
// over, and false for all_time (sum the whole log / read the projection).
func (p LeaderboardPeriod) WindowStart(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodDaily:
		return now.Add(-24 * time.Hour), true
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), true
	case PeriodMonthly:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

type LeaderboardScope string

const (
	ScopeGlobal LeaderboardScope = "global"
	ScopeSchool LeaderboardScope = "school"
	ScopeClass  LeaderboardScope = "class"
)

func (s LeaderboardScope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeSchool, ScopeClass:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Points   int       `json:"points"`
	Level    int       `json:"level"`
}

// LeaderboardSnapshot is a replaceable cached projection. Recomputes
// overwrite it wholesale, latest wins.
type LeaderboardSnapshot struct {
	Period      LeaderboardPeriod
	Scope       LeaderboardScope
	ScopeID     *uuid.UUID
	Entries     []LeaderboardEntry
	LastUpdated time.Time
}
