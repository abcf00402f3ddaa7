package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskRequirements struct {
	PhotoRequired     bool   `json:"photo_required"`
	LocationRequired  bool   `json:"location_required"`
	MinDescriptionLen int    `json:"min_description_len"`
	VerificationType  string `json:"verification_type"`
}

type Task struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Category     string
	Difficulty   string
	EcoPoints    int
	ImpactMetric string
	ImpactValue  float64
	Requirements TaskRequirements
	IsActive     bool
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type SubmissionPayload struct {
	PhotoURLs   []string  `json:"photo_urls,omitempty"`
	Location    *GeoPoint `json:"location,omitempty"`
	Description string    `json:"description"`
}

// TaskSubmission moves pending -> approved|rejected exactly once and is
// terminal after that. Re-submitting after a rejection means a new row.
type TaskSubmission struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TaskID      uuid.UUID
	Status      SubmissionStatus
	Payload     SubmissionPayload
	ReviewedBy  *uuid.UUID
	ReviewedAt  *time.Time
	Feedback    string
	SubmittedAt time.Time
}

type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

func (d ReviewDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type ReviewResult struct {
	Submission    *TaskSubmission
	PointsAwarded int
	NewBadges     []*Badge
}
