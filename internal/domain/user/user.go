package user

import (
	"context"
	"strings"
)

type Role string

const (
	RoleBasic       Role = "basic"
	RoleArtist      Role = "artist"
	RoleInstitution Role = "institution"
)

// ParseRole treats anything unrecognised, including an empty value, as basic.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleArtist:
		return RoleArtist
	case RoleInstitution:
		return RoleInstitution
	}
	return RoleBasic
}

type RoleRepository interface {
	// FindRole returns RoleBasic when the user has no user_roles row.
	FindRole(ctx context.Context, userID string) (Role, error)
}
