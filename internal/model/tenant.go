package model

import (
	"regexp"
	"strings"
	"time"
)

// Theme values allowed in tenant settings.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// TenantSettings holds per-tenant configuration embedded in the tenant row.
type TenantSettings struct {
	Theme                 string `json:"theme" gorm:"size:20;default:'system'"`
	AllowUserRegistration bool   `json:"allow_user_registration" gorm:"default:false"`
	DefaultUserRole       string `json:"default_user_role" gorm:"size:20;default:'user'"`
}

// Tenant represents an isolated organizational unit.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Slug      string         `json:"slug" gorm:"uniqueIndex;size:50;not null"`
	CreatedBy uint           `json:"created_by" gorm:"index;not null"`
	Settings  TenantSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DefaultSettings returns the settings applied to newly created tenants.
func DefaultSettings() TenantSettings {
	return TenantSettings{
		Theme:                 ThemeSystem,
		AllowUserRegistration: false,
		DefaultUserRole:       RoleUser,
	}
}

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	whitespaceSeq = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenSeq     = regexp.MustCompile(`--+`)
)

// Slugify derives a URL-safe slug from a tenant name: lowercase, whitespace
// becomes a hyphen, remaining characters outside [a-z0-9-] are stripped and
// repeated hyphens are collapsed. Deterministic and idempotent.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceSeq.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = hyphenSeq.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is a well-formed tenant slug.
func ValidSlug(s string) bool {
	return s != "" && len(s) <= 50 && slugPattern.MatchString(s)
}

// ValidTheme reports whether theme is one of the allowed theme values.
func ValidTheme(theme string) bool {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}
