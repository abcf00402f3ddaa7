package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleNGO     Role = "ngo"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

// Capability names a privileged operation. Handlers check capabilities at the
// boundary instead of comparing roles inline.
type Capability string

const (
	CapManageTasks       Capability = "manage_tasks"
	CapManageBadges      Capability = "manage_badges"
	CapReviewSubmissions Capability = "review_submissions"
	CapAssignRoles       Capability = "assign_roles"
	CapAwardPoints       Capability = "award_points"
	CapViewAnyUser       Capability = "view_any_user"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleStudent: {},
	RoleTeacher: {
		CapManageTasks:       {},
		CapReviewSubmissions: {},
		CapViewAnyUser:       {},
	},
	RoleNGO: {
		CapManageTasks:       {},
		CapReviewSubmissions: {},
	},
	RoleAdmin: {
		CapManageTasks:       {},
		CapManageBadges:      {},
		CapReviewSubmissions: {},
		CapAssignRoles:       {},
		CapAwardPoints:       {},
		CapViewAnyUser:       {},
	},
}

func (r Role) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Role         Role
	SchoolID     *uuid.UUID
	ClassID      *uuid.UUID
	RegisteredAt time.Time
	LastSeenAt   time.Time
}
