package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBadgeEarned  NotificationType = "badge_earned"
	NotificationLevelUp      NotificationType = "level_up"
	NotificationTaskReviewed NotificationType = "task_reviewed"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     string
	Message   string
	Metadata  map[string]any
	IsRead    bool
	CreatedAt time.Time
}

// Event is what the live feed pushes to connected clients. A nil UserID
// (uuid.Nil) means broadcast.
type Event struct {
	Type   string         `json:"type"`
	UserID uuid.UUID      `json:"user_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}
