// Package identity resolves who is calling and what their role allows.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned when no valid caller identity is present.
var ErrUnauthenticated = errors.New("unauthenticated")

// Role is the caller's side of the workflow.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleOperator Role = "operator"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return r == RoleOwner || r == RoleOperator }

// ParseRole accepts a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, s)
	}
	return r, nil
}

// Principal is an authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// NewPrincipal parses an ID and role into a Principal.
func NewPrincipal(id, role string) (Principal, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || uid == uuid.Nil {
		return Principal{}, fmt.Errorf("%w: invalid user id %q", ErrUnauthenticated, id)
	}
	r, err := ParseRole(role)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: uid, Role: r}, nil
}

func (p Principal) IsOperator() bool { return p.Role == RoleOperator }

func (p Principal) String() string { return fmt.Sprintf("%s:%s", p.Role, p.ID) }

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
