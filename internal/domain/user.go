package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
)

// AllPermissions is ordered; PermissionSet bits follow this order.
var AllPermissions = []Permission{PermissionRead, PermissionWrite, PermissionDelete}

func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if p.bit() == 0 {
		return "", fmt.Errorf("%w: unknown permission %q", ErrValidation, s)
	}
	return p, nil
}

func (p Permission) bit() PermissionSet {
	for i, known := range AllPermissions {
		if p == known {
			return 1 << i
		}
	}
	return 0
}

// PermissionSet is a bitmask over AllPermissions.
type PermissionSet uint8

func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s |= p.bit()
	}
	return s
}

func FullPermissionSet() PermissionSet {
	return NewPermissionSet(AllPermissions...)
}

// ParsePermissionSet reads the comma separated storage form.
func ParsePermissionSet(csv string) (PermissionSet, error) {
	var s PermissionSet
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePermission(part)
		if err != nil {
			return 0, err
		}
		s |= p.bit()
	}
	return s, nil
}

func (s PermissionSet) Has(p Permission) bool {
	b := p.bit()
	return b != 0 && s&b == b
}

func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(AllPermissions))
	for _, p := range AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s PermissionSet) String() string {
	list := s.List()
	parts := make([]string, len(list))
	for i, p := range list {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set, err := ParsePermissionSet(strings.Join(raw, ","))
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// User is the plain record handed between the store, services and handlers.
type User struct {
	ID           uint          `json:"user_id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Permissions  PermissionSet `json:"permissions"`
	RefreshJTI   string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
