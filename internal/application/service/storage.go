package service

import (
	"context"
	"errors"
	"io"

	"github.com/encorestage/encore/internal/domain/profile"
)

const (
	BucketAvatars          = "avatars"
	BucketArtistMedia      = "artist-media"
	// BucketProfileSnapshots holds the JSON archive written on every profile save.
	BucketProfileSnapshots = "profile-snapshots"
)

type UploadOptions struct {
	ContentType    string
	AllowOverwrite bool
}

// ObjectStorage is the bucket side of the data gateway. Upload must fail when
// AllowOverwrite is false and the path already exists.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, opts UploadOptions) error
	PublicURL(ctx context.Context, bucket, path string) (string, error)
}

// Thumbnailer derives a preview URL for an already uploaded object.
// ErrNoThumbnail is returned for kinds that have no visual preview.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, bucket, path string, kind profile.MediaKind) (string, error)
}

var ErrNoThumbnail = errors.New("no thumbnail for this media kind")
