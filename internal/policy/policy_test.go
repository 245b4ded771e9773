package policy

import (
	"testing"

	"github.com/edufeedback/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

var (
	admin   = &Identity{UserID: 1, Role: model.RoleAdmin}
	student = &Identity{UserID: 2, Role: model.RoleStudent}
)

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(student), ErrAdminOnly)
	assert.ErrorIs(t, RequireAdmin(nil), ErrUnauthenticated)
}

func TestCanSubmitFeedback(t *testing.T) {
	assert.NoError(t, CanSubmitFeedback(student, 2))
	assert.ErrorIs(t, CanSubmitFeedback(student, 3), ErrNotOwner)
	assert.ErrorIs(t, CanSubmitFeedback(admin, 1), ErrStudentOnly)
	assert.ErrorIs(t, CanSubmitFeedback(nil, 2), ErrUnauthenticated)
}

func TestCanReadHistory(t *testing.T) {
	assert.NoError(t, CanReadHistory(student, 2))
	assert.NoError(t, CanReadHistory(admin, 2))
	assert.ErrorIs(t, CanReadHistory(student, 1), ErrNotOwner)
	assert.ErrorIs(t, CanReadHistory(nil, 2), ErrUnauthenticated)
}

func TestEnsureAdminRemains(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		adminCount int
		wantErr    error
	}{
		{"sole admin", model.RoleAdmin, 1, ErrLastAdmin},
		{"one of two admins", model.RoleAdmin, 2, nil},
		{"student with one admin", model.RoleStudent, 1, nil},
		{"student with no admins", model.RoleStudent, 0, nil},
		{"admin count already zero", model.RoleAdmin, 0, ErrLastAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureAdminRemains(tt.role, tt.adminCount)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGuardOpenModeWaivesIdentityRules(t *testing.T) {
	g := NewGuard(false)

	assert.False(t, g.Enforced())
	assert.NoError(t, g.Admin(nil))
	assert.NoError(t, g.Authenticated(nil))
	assert.NoError(t, g.SubmitFeedback(nil, 99))
	assert.NoError(t, g.ReadHistory(student, 1))
}

func TestGuardEnforced(t *testing.T) {
	g := NewGuard(true)

	assert.True(t, g.Enforced())
	assert.ErrorIs(t, g.Admin(student), ErrAdminOnly)
	assert.ErrorIs(t, g.Authenticated(nil), ErrUnauthenticated)
	assert.NoError(t, g.Authenticated(student))
	assert.ErrorIs(t, g.SubmitFeedback(student, 5), ErrNotOwner)
	assert.NoError(t, g.ReadHistory(admin, 5))
}
