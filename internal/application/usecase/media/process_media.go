package media

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/internal/domain/rendition"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

// ProcessMediaUseCase records a thumbnail for each uploaded image or video.
type ProcessMediaUseCase struct {
	renditions  rendition.Repository
	thumbnailer service.Thumbnailer
	now         service.Clock
	logger      logger.Logger
}

func NewProcessMediaUseCase(r rendition.Repository, t service.Thumbnailer, log logger.Logger) *ProcessMediaUseCase {
	return &ProcessMediaUseCase{renditions: r, thumbnailer: t, now: time.Now, logger: log}
}

func (uc *ProcessMediaUseCase) Execute(ctx context.Context, payload event.MediaEventPayload) error {
	l := uc.logger.With(zap.String("media_id", payload.MediaID), zap.String("event_type", string(payload.EventType)))
	l.Info("Worker UseCase processing media event")

	if payload.EventType != event.MediaEventTypeUploaded {
		l.Warn("Unknown media event type, skipping")
		return nil
	}
	if payload.Kind == profile.KindAudio {
		l.Info("Audio has no thumbnail, skipping")
		return nil
	}

	existing, err := uc.renditions.FindBySourceURLs(ctx, []string{payload.URL})
	if err != nil {
		return apperror.NewInternal("failed to look up rendition", err)
	}
	if _, ok := existing[payload.URL]; ok {
		l.Info("Rendition already exists, skipping")
		return nil
	}

	thumbURL, err := uc.thumbnailer.Thumbnail(ctx, payload.Bucket, payload.Path, payload.Kind)
	if errors.Is(err, service.ErrNoThumbnail) {
		l.Info("No thumbnail for media kind, skipping", zap.String("kind", string(payload.Kind)))
		return nil
	}
	if err != nil {
		return apperror.NewInternal("failed to build thumbnail URL", err)
	}

	r := &rendition.Rendition{
		SourceURL:    payload.URL,
		ThumbnailURL: thumbURL,
		Kind:         payload.Kind,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.renditions.Upsert(ctx, r); err != nil {
		return apperror.NewInternal("failed to save rendition", err)
	}

	l.Info("Successfully processed media", zap.String("thumbnail_url", thumbURL))
	return nil
}
