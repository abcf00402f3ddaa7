package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CriteriaKind string

const (
	CriteriaPoints    CriteriaKind = "points"
	CriteriaLessons   CriteriaKind = "lessons"
	CriteriaTasks     CriteriaKind = "tasks"
	CriteriaStreak    CriteriaKind = "streak"
	CriteriaQuizScore CriteriaKind = "quiz_score"
	CriteriaImpact    CriteriaKind = "environmental_impact"
)

// BadgeCriteria is a tagged variant: Kind selects the rule, the remaining
// fields carry that rule's payload. Category filters task-count criteria,
// Metric names the accumulated measure for impact criteria.
type BadgeCriteria struct {
	Kind     CriteriaKind `json:"kind"`
	Target   float64      `json:"target"`
	Category string       `json:"category,omitempty"`
	Metric   string       `json:"metric,omitempty"`
}

// Qualifies evaluates the criteria against an aggregated progress snapshot.
// An unknown kind is an error, never a silent fallthrough.
func (c BadgeCriteria) Qualifies(s *ProgressSnapshot) (bool, error) {
	switch c.Kind {
	case CriteriaPoints:
		return float64(s.TotalPoints) >= c.Target, nil
	case CriteriaLessons:
		return float64(s.CompletedLessons) >= c.Target, nil
	case CriteriaTasks:
		if c.Category != "" {
			return float64(s.ApprovedByCat[c.Category]) >= c.Target, nil
		}
		return float64(s.ApprovedTasks) >= c.Target, nil
	case CriteriaStreak:
		best := s.CurrentStreak
		if s.LongestStreak > best {
			best = s.LongestStreak
		}
		return float64(best) >= c.Target, nil
	case CriteriaQuizScore:
		return s.BestQuizScore >= c.Target, nil
	case CriteriaImpact:
		return s.Impact[c.Metric] >= c.Target, nil
	default:
		return false, fmt.Errorf("unknown badge criteria kind %q", c.Kind)
	}
}

type Badge struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Criteria     BadgeCriteria
	RewardPoints int
	Rarity       string
	IsActive     bool
	CreatedAt    time.Time
}

// UserBadge records one earned badge. (UserID, BadgeID) is unique at the
// storage layer, which is what makes badge awards at-most-once.
type UserBadge struct {
	UserID   uuid.UUID
	BadgeID  uuid.UUID
	EarnedAt time.Time
}
