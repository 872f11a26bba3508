package auth

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"tenantcore/internal/errors"
	"tenantcore/internal/model"
	"tenantcore/internal/repository"
)

// Identity is the minimal caller identity resolved from a verified token. It
// never carries the password hash.
type Identity struct {
	UserID        uint
	IsSystemAdmin bool
}

// roleRank fixes the capability ordering tenantAdmin > author > user. Unknown
// roles rank below everything.
var roleRank = map[string]int{
	model.RoleUser:        1,
	model.RoleAuthor:      2,
	model.RoleTenantAdmin: 3,
}

// RoleAtLeast reports whether role meets or exceeds required in the fixed
// role ordering.
func RoleAtLeast(role, required string) bool {
	return roleRank[role] >= roleRank[required] && roleRank[role] > 0
}

// Guard decides tenant-scoped authorization. The decision is a pure function
// of the identity and the membership snapshot read from the registry; it has
// no side effects and is safe to call repeatedly.
type Guard struct {
	memberships repository.MembershipRepository
}

// NewGuard creates a guard backed by the membership registry.
func NewGuard(memberships repository.MembershipRepository) *Guard {
	return &Guard{memberships: memberships}
}

// Authorize decides whether identity may act in tenantID at requiredRole.
// A nil return means allow. Deny reasons:
//   - errors.ErrNotAMember when no active membership exists
//   - errors.ErrInsufficientRole when the membership role ranks too low
//
// A registry read failure is not a denial; it propagates unchanged so callers
// surface it as an internal error rather than a membership verdict. System
// admins bypass tenant scoping entirely.
func (g *Guard) Authorize(ctx context.Context, identity Identity, tenantID uint, requiredRole string) error {
	if identity.IsSystemAdmin {
		return nil
	}

	membership, err := g.memberships.FindByUserAndTenant(ctx, identity.UserID, tenantID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrNotAMember
		}
		return fmt.Errorf("find membership: %w", err)
	}
	if membership == nil || !membership.IsActive {
		return errors.ErrNotAMember
	}

	if !RoleAtLeast(membership.Role, requiredRole) {
		return errors.ErrInsufficientRole
	}
	return nil
}
