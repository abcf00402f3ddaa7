package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Can(t *testing.T) {
	assert.False(t, RoleStudent.Can(CapReviewSubmissions))
	assert.False(t, RoleStudent.Can(CapManageTasks))

	assert.True(t, RoleTeacher.Can(CapReviewSubmissions))
	assert.True(t, RoleTeacher.Can(CapViewAnyUser))
	assert.False(t, RoleTeacher.Can(CapAssignRoles))
	assert.False(t, RoleTeacher.Can(CapManageBadges))

	assert.True(t, RoleNGO.Can(CapManageTasks))
	assert.False(t, RoleNGO.Can(CapViewAnyUser))

	assert.True(t, RoleAdmin.Can(CapAssignRoles))
	assert.True(t, RoleAdmin.Can(CapManageBadges))
	assert.True(t, RoleAdmin.Can(CapAwardPoints))

	assert.False(t, Role("intruder").Can(CapManageTasks))
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleTeacher, RoleNGO, RoleAdmin} {
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}
