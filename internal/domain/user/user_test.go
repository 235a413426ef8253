package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleArtist, ParseRole("artist"))
	assert.Equal(t, RoleInstitution, ParseRole(" Institution"))
	assert.Equal(t, RoleBasic, ParseRole(""))
	assert.Equal(t, RoleBasic, ParseRole("admin"))
}
