package model

import "time"

// Roles a membership may carry within a tenant. Ordering between roles is the
// authorization guard's concern; at this layer they are plain values.
const (
	RoleTenantAdmin = "tenantAdmin"
	RoleAuthor      = "author"
	RoleUser        = "user"
)

// ValidRole reports whether role is one of the known membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleTenantAdmin, RoleAuthor, RoleUser:
		return true
	}
	return false
}

// Membership binds a user to a tenant with exactly one role. The composite
// unique index guarantees at most one row per (user, tenant) pair.
type Membership struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex:idx_memberships_user_tenant;not null"`
	TenantID     uint      `json:"tenant_id" gorm:"uniqueIndex:idx_memberships_user_tenant;not null"`
	Role         string    `json:"role" gorm:"size:20;not null;default:'user'"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
