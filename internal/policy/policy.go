// Package policy holds the access rules of the portal. Functions here are
// pure: they decide on an identity the caller has already established and
// never touch storage.
package policy

import (
	"errors"

	"github.com/edufeedback/backend/internal/model"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrAdminOnly       = errors.New("admin access only")
	ErrNotOwner        = errors.New("resource belongs to another user")
	ErrStudentOnly     = errors.New("student access only")
	ErrLastAdmin       = errors.New("cannot delete the last remaining admin")
)

// Identity is the caller as established by the API layer.
type Identity struct {
	UserID int
	Role   model.Role
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// RequireAdmin allows listing everything and deleting feedback or users.
func RequireAdmin(id *Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// RequireAuthenticated allows any logged-in caller.
func RequireAuthenticated(id *Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	return nil
}

// CanSubmitFeedback allows a student to create feedback under their own id only.
func CanSubmitFeedback(id *Identity, ownerID int) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.Role != model.RoleStudent {
		return ErrStudentOnly
	}
	if id.UserID != ownerID {
		return ErrNotOwner
	}
	return nil
}

// CanReadHistory allows the owner, or any admin, to read a user's history.
func CanReadHistory(id *Identity, ownerID int) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.IsAdmin() || id.UserID == ownerID {
		return nil
	}
	return ErrNotOwner
}

// EnsureAdminRemains rejects deleting target when it is an admin and
// adminCount admins exist including it.
func EnsureAdminRemains(target model.Role, adminCount int) error {
	if target == model.RoleAdmin && adminCount-1 < 1 {
		return ErrLastAdmin
	}
	return nil
}

// Guard applies the rules above, or waives the identity rules when the
// server runs in open mode. The last-admin invariant is never waived.
type Guard struct {
	enforce bool
}

// NewGuard creates a Guard. enforce=false reproduces unauthenticated access.
func NewGuard(enforce bool) *Guard {
	return &Guard{enforce: enforce}
}

// Enforced reports whether identity rules are checked.
func (g *Guard) Enforced() bool {
	return g.enforce
}

func (g *Guard) Admin(id *Identity) error {
	if !g.enforce {
		return nil
	}
	return RequireAdmin(id)
}

func (g *Guard) Authenticated(id *Identity) error {
	if !g.enforce {
		return nil
	}
	return RequireAuthenticated(id)
}

func (g *Guard) SubmitFeedback(id *Identity, ownerID int) error {
	if !g.enforce {
		return nil
	}
	return CanSubmitFeedback(id, ownerID)
}

func (g *Guard) ReadHistory(id *Identity, ownerID int) error {
	if !g.enforce {
		return nil
	}
	return CanReadHistory(id, ownerID)
}
