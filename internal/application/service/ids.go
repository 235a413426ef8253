package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clock func() time.Time

type IDGenerator interface {
	// NewID returns a collision-resistant identifier.
	NewID() string
	// Suffix returns a short random token for object paths.
	Suffix() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

func (UUIDGenerator) Suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
