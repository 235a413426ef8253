package service

import (
	"context"

	"github.com/encorestage/encore/adapters/event"
)

// EventPublisher announces profile and media changes. Publishing is best
// effort: callers log failures and carry on.
type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, payload event.ProfileEventPayload) error
	PublishMediaEvent(ctx context.Context, payload event.MediaEventPayload) error
}
