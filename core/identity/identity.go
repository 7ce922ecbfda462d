// Package identity provides the signed-in user snapshot and request metadata carriers.
//
// Overview:
//   - Responsibility: Model the current user and role, store them in context
//   - Key Types: User for the probed identity, Role enum, RequestMeta for request metadata
//   - Concurrency Model: All functions are safe for concurrent use; User values are treated as immutable
//   - Error Semantics: Lookups return a boolean to indicate presence
//   - Performance Notes: Context-based storage, no allocations on lookup
//
// Usage:
//
//	ctx := identity.WithUser(ctx, &identity.User{ID: 7, Username: "mia", Role: identity.RoleSeller})
//	if identity.HasRole(ctx, identity.RoleSeller) { ... }
package identity

import (
	"context"
	"strings"
)

// Role is the resolved authorization level of the current user.
type Role string

// Roles known to the backend. RoleNone means "not signed in".
const (
	RoleNone   Role = "NONE"
	RoleUser   Role = "USER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole maps a backend role string to a Role.
// Unknown or empty values map to RoleUser: any probed identity is at least a user.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSeller:
		return RoleSeller
	case RoleNone:
		return RoleNone
	default:
		return RoleUser
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User is the identity returned by the session probe.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Level     int    `json:"level,omitempty"`
}

// RoleOf returns the role of u, RoleNone for a nil user.
func RoleOf(u *User) Role {
	if u == nil {
		return RoleNone
	}
	if u.Role == "" {
		return RoleUser
	}
	return ParseRole(string(u.Role))
}

// RequestMeta contains request metadata information.
type RequestMeta struct {
	RequestID string // Unique request identifier for tracing
	RemoteIP  string // Client IP address
	UserAgent string // Client user agent string
	Page      string // Front-end page the request was issued from
}

type contextKey string

const (
	userKey contextKey = "user"
	metaKey contextKey = "meta"
)

// WithUser stores user information in the context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom retrieves user information from the context.
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil
}

// WithMeta stores request metadata in the context.
func WithMeta(ctx context.Context, m *RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey, m)
}

// MetaFrom retrieves request metadata from the context.
func MetaFrom(ctx context.Context) (*RequestMeta, bool) {
	m, ok := ctx.Value(metaKey).(*RequestMeta)
	return m, ok && m != nil
}

// HasRole checks if the user in the context has exactly the given role.
func HasRole(ctx context.Context, role Role) bool {
	user, ok := UserFrom(ctx)
	if !ok {
		return role == RoleNone
	}
	return RoleOf(user) == role
}

// HasAnyRole checks if the user in the context has any of the given roles.
func HasAnyRole(ctx context.Context, roles ...Role) bool {
	for _, role := range roles {
		if HasRole(ctx, role) {
			return true
		}
	}
	return false
}
