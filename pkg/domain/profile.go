package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Profile is the public account record attached to an auth user.
// Name and avatar fields may be null on the wire; null decodes to "".
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	AvatarURL string     `json:"avatar_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (p Profile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Initial returns the upper-cased first letter of the first name, or "?".
func (p Profile) Initial() string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(p.FirstName))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// HasAvatar reports whether an avatar has been uploaded.
func (p Profile) HasAvatar() bool {
	return strings.TrimSpace(p.AvatarURL) != ""
}
