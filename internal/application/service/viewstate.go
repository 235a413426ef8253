package service

import (
	"context"
	"errors"
)

// ErrViewGone is returned for a view instance that was never mounted, was
// unmounted, or expired. Results that arrive for such a view are dropped.
var ErrViewGone = errors.New("view is no longer mounted")

// ViewStore keeps the state of mounted view instances between requests.
// State values are JSON encoded.
type ViewStore interface {
	Put(ctx context.Context, key string, state any) error
	Get(ctx context.Context, key string, state any) error
	// Update loads the current state into state, runs fn and stores the
	// result atomically. If fn returns an error nothing is stored.
	Update(ctx context.Context, key string, state any, fn func() error) error
	Delete(ctx context.Context, key string) error
}
