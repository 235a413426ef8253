package profile

import (
	"context"
	"strings"

	"github.com/encorestage/encore/internal/domain/record"
)

type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
	KindAudio MediaKind = "audio"
)

// ClassifyKind maps a declared content type onto a media kind. Anything that
// is neither video nor image is treated as audio.
func ClassifyKind(contentType string) MediaKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	}
	return KindAudio
}

func ParseKind(s string) MediaKind {
	switch MediaKind(strings.ToLower(s)) {
	case KindVideo:
		return KindVideo
	case KindImage:
		return KindImage
	}
	return KindAudio
}

// RepertoireItem.LocalID only targets edits within one editor session; it is
// stored as-is but carries no meaning across sessions.
type RepertoireItem struct {
	LocalID  int64  `json:"id"`
	Title    string `json:"title"`
	Composer string `json:"composer"`
}

type MediaItem struct {
	ID   string    `json:"id"`
	Kind MediaKind `json:"type"`
	URL  string    `json:"url"`
	Name string    `json:"name"`
}

// CareerMoment is a dated milestone. MediaURLs is newest first.
type CareerMoment struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	MediaURLs   []string `json:"media_urls"`
}

type ArtistProfile struct {
	OwnerID     string           `json:"owner_id"`
	DisplayName string           `json:"display_name"`
	Bio         string           `json:"bio"`
	Location    string           `json:"location"`
	VoiceType   string           `json:"voice_type"`
	ArtistType  string           `json:"artist_type"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
	Schools     []string         `json:"schools"`
	Repertoire  []RepertoireItem `json:"repertoire"`
	Media       []MediaItem      `json:"media"`
	Career      []CareerMoment   `json:"career"`
}

// New returns the blank profile an editor starts from.
func New(ownerID string) ArtistProfile {
	return ArtistProfile{
		OwnerID:    ownerID,
		Schools:    []string{},
		Repertoire: []RepertoireItem{},
		Media:      []MediaItem{},
		Career:     []CareerMoment{},
	}
}

type Repository interface {
	// GetByOwner returns the stored row, or an apperror.ErrNotFound error.
	GetByOwner(ctx context.Context, ownerID string) (record.Row, error)
	// Upsert replaces the whole document keyed by owner_id.
	Upsert(ctx context.Context, row record.Row) error
}
