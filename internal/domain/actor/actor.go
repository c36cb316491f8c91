package actor

import (
	"errors"
	"strings"
)

// Role is a capability an actor holds. Roles are not exclusive.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// Actor is the caller of a workflow operation, as asserted by the identity layer.
type Actor struct {
	ID    int64  `json:"id"`
	Roles []Role `json:"roles"`
}

func New(id int64, roles ...Role) Actor {
	return Actor{ID: id, Roles: roles}
}

func (a Actor) Has(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.Has(RoleAdmin)
}

func (a Actor) RoleStrings() []string {
	out := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		out[i] = string(r)
	}
	return out
}

// ParseRole normalizes a role name.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleSeller:
		return RoleSeller, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrUnknownRole
}

// ParseRoles parses a comma separated role list, skipping blanks.
func ParseRoles(list string) ([]Role, error) {
	var roles []Role
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}
