package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/internal/domain/rendition"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type memRenditions struct {
	byURL map[string]rendition.Rendition
}

func (m *memRenditions) Upsert(_ context.Context, r *rendition.Rendition) error {
	m.byURL[r.SourceURL] = *r
	return nil
}

func (m *memRenditions) FindBySourceURLs(_ context.Context, urls []string) (map[string]rendition.Rendition, error) {
	out := map[string]rendition.Rendition{}
	for _, u := range urls {
		if r, ok := m.byURL[u]; ok {
			out[u] = r
		}
	}
	return out, nil
}

type stubThumbs struct {
	calls int
	err   error
}

func (s *stubThumbs) Thumbnail(_ context.Context, bucket, path string, kind profile.MediaKind) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if kind == profile.KindAudio {
		return "", service.ErrNoThumbnail
	}
	return "https://thumbs.test/" + bucket + "/" + path, nil
}

func payload(kind profile.MediaKind) event.MediaEventPayload {
	return event.MediaEventPayload{
		EventType: event.MediaEventTypeUploaded,
		OwnerID:   "owner-1",
		MediaID:   "m1",
		Kind:      kind,
		Bucket:    "artist-media",
		Path:      "owner-1/media/1-abc.png",
		URL:       "https://cdn.test/artist-media/owner-1/media/1-abc.png",
	}
}

func TestProcessMedia_StoresThumbnailOnce(t *testing.T) {
	repo := &memRenditions{byURL: map[string]rendition.Rendition{}}
	thumbs := &stubThumbs{}
	uc := NewProcessMediaUseCase(repo, thumbs, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), payload(profile.KindImage)))
	require.NoError(t, uc.Execute(context.Background(), payload(profile.KindImage)))

	r, ok := repo.byURL[payload(profile.KindImage).URL]
	require.True(t, ok)
	assert.Equal(t, "https://thumbs.test/artist-media/owner-1/media/1-abc.png", r.ThumbnailURL)
	assert.Equal(t, 1, thumbs.calls)
}

func TestProcessMedia_SkipsAudio(t *testing.T) {
	repo := &memRenditions{byURL: map[string]rendition.Rendition{}}
	thumbs := &stubThumbs{}
	uc := NewProcessMediaUseCase(repo, thumbs, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), payload(profile.KindAudio)))
	assert.Empty(t, repo.byURL)
	assert.Equal(t, 0, thumbs.calls)
}

func TestProcessMedia_ThumbnailFailure(t *testing.T) {
	repo := &memRenditions{byURL: map[string]rendition.Rendition{}}
	uc := NewProcessMediaUseCase(repo, &stubThumbs{err: errors.New("bad asset")}, logger.NewNop())

	err := uc.Execute(context.Background(), payload(profile.KindVideo))
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.Empty(t, repo.byURL)
}
