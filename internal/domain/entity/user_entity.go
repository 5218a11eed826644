package entity

import (
	"time"
)

// Role is the authorization role attached to a user account.
// Admin is not a strict superset of editor; each resource rule names
// the roles it accepts explicitly.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// MaxRefreshTokens bounds the outstanding refresh tokens kept per user.
// The oldest token is evicted first when the bound is exceeded.
const MaxRefreshTokens = 5

// User is the aggregate root for the credential store.
// Password holds a bcrypt hash and is stripped before the entity is
// returned to any caller outside login/password flows.
type User struct {
	ID                string
	Username          string
	Email             string
	Password          string
	Role              Role
	Active            bool
	AvatarURL         string
	PasswordChangedAt time.Time // zero value means the password was never changed
	RefreshTokens     []string
	Preferences       map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AddRefreshToken appends a token to the outstanding set, evicting the
// oldest entry when the bound is reached.
func (u *User) AddRefreshToken(token string) {
	if len(u.RefreshTokens) >= MaxRefreshTokens {
		u.RefreshTokens = u.RefreshTokens[len(u.RefreshTokens)-MaxRefreshTokens+1:]
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
}

// RemoveRefreshToken deletes token from the outstanding set. It is a
// no-op when the token is not present.
func (u *User) RemoveRefreshToken(token string) {
	kept := u.RefreshTokens[:0]
	for _, t := range u.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.RefreshTokens = kept
}

// HasRefreshToken reports whether token is in the outstanding set.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

// ClearRefreshTokens revokes every outstanding refresh token.
func (u *User) ClearRefreshTokens() {
	u.RefreshTokens = nil
}

// ChangedPasswordAfter reports whether the password changed after the
// given token issue time. Access tokens issued before a password change
// are stale and must be rejected.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return issuedAt.Before(u.PasswordChangedAt)
}

// Sanitize strips the password hash so the entity can be returned to callers.
func (u *User) Sanitize() *User {
	u.Password = ""
	return u
}
