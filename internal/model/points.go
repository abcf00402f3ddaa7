package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityLessonCompleted ActivityType = "lesson_completed"
	ActivityQuizPassed      ActivityType = "quiz_passed"
	ActivityTaskApproved    ActivityType = "task_approved"
	ActivityBadgeReward     ActivityType = "badge_reward"
	ActivityAdjustment      ActivityType = "adjustment"
)

// PointsPerLevel is the flat points-to-level ratio: level N starts at
// (N-1)*PointsPerLevel total points.
const PointsPerLevel = 100

func LevelForPoints(total int) int {
	if total < 0 {
		return 1
	}
	return total/PointsPerLevel + 1
}

// PointsLogEntry is one immutable row of the append-only points log. The log
// is the source of truth for a user's total; UserProgress caches the sum.
type PointsLogEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Delta        int
	Reason       string
	ActivityType ActivityType
	// ActivityID ties reward-type entries to the discrete event that earned
	// them, so a retried award is detected as a duplicate instead of paying
	// twice.
	ActivityID *uuid.UUID
	CreatedAt  time.Time
}

type AwardResult struct {
	NewTotal  int
	NewLevel  int
	LeveledUp bool
}

// UserProgress is a cached projection of the points log plus activity
// counters. Every write to it is co-committed with the log entry that
// justifies it.
type UserProgress struct {
	UserID           uuid.UUID
	TotalPoints      int
	Level            int
	CompletedLessons int
	ApprovedTasks    int
	QuizAttempts     int
	BestQuizScore    float64
	UpdatedAt        time.Time
}

// ProgressSnapshot is the aggregated view the badge evaluator runs against.
type ProgressSnapshot struct {
	TotalPoints      int
	Level            int
	CompletedLessons int
	ApprovedTasks    int
	ApprovedByCat    map[string]int
	BestQuizScore    float64
	CurrentStreak    int
	LongestStreak    int
	Impact           map[string]float64
}
