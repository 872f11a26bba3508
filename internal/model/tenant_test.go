package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Acme", "acme"},
		{"name with spaces", "Acme Corp", "acme-corp"},
		{"punctuation stripped", "Acme Corp!!", "acme-corp"},
		{"repeated whitespace", "Acme   Corp", "acme-corp"},
		{"repeated hyphens collapsed", "Acme -- Corp", "acme-corp"},
		{"leading and trailing junk", "  ~Acme Corp~  ", "acme-corp"},
		{"numbers kept", "Team 42", "team-42"},
		{"already a slug", "acme-corp", "acme-corp"},
		{"only junk", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Acme Corp!!", "Hello World", "a--b--c"}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once))
	}
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("acme-corp"))
	assert.True(t, ValidSlug("team-42"))
	assert.False(t, ValidSlug(""))
	assert.False(t, ValidSlug("Acme"))
	assert.False(t, ValidSlug("acme corp"))
	assert.False(t, ValidSlug("acme_corp"))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleTenantAdmin))
	assert.True(t, ValidRole(RoleAuthor))
	assert.True(t, ValidRole(RoleUser))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("Tenant Admin"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestUserPublicHasNoHash(t *testing.T) {
	u := User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"}
	pub := u.Public()
	assert.Equal(t, u.ID, pub.ID)
	assert.Equal(t, u.Username, pub.Username)
	assert.Equal(t, u.Email, pub.Email)
}
