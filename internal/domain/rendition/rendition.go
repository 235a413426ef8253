package rendition

import (
	"context"
	"time"

	"github.com/encorestage/encore/internal/domain/profile"
)

// Rendition is a derived preview of an uploaded media object, keyed by the
// object's public URL.
type Rendition struct {
	SourceURL    string            `json:"source_url"`
	ThumbnailURL string            `json:"thumbnail_url"`
	Kind         profile.MediaKind `json:"kind"`
	CreatedAt    time.Time         `json:"created_at"`
}

type Repository interface {
	Upsert(ctx context.Context, r *Rendition) error
	FindBySourceURLs(ctx context.Context, urls []string) (map[string]Rendition, error)
}
