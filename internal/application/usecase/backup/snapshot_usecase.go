package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

// SnapshotUseCase archives the stored profile document after each save so an
// earlier version can be restored by hand.
type SnapshotUseCase struct {
	profiles profile.Repository
	storage  service.ObjectStorage
	logger   logger.Logger
}

func NewSnapshotUseCase(profiles profile.Repository, storage service.ObjectStorage, log logger.Logger) *SnapshotUseCase {
	return &SnapshotUseCase{
		profiles: profiles,
		storage:  storage,
		logger:   log,
	}
}

// SnapshotPath is "{owner}/{saved_at}.json". A redelivered event maps to the
// same path.
func SnapshotPath(payload event.ProfileEventPayload) string {
	return fmt.Sprintf("%s/%s.json", payload.OwnerID, payload.SavedAt.UTC().Format("2006-01-02_15-04-05.000"))
}

func (uc *SnapshotUseCase) Execute(ctx context.Context, payload event.ProfileEventPayload) error {
	l := uc.logger.With(zap.String("owner_id", payload.OwnerID), zap.String("event_type", string(payload.EventType)))

	if payload.EventType != event.ProfileEventTypeSaved {
		l.Debug("Ignoring profile event")
		return nil
	}
	if payload.OwnerID == "" {
		l.Warn("Profile event without owner, skipping")
		return nil
	}

	row, err := uc.profiles.GetByOwner(ctx, payload.OwnerID)
	if errors.Is(err, apperror.ErrNotFound) {
		l.Warn("Saved profile no longer exists, skipping snapshot")
		return nil
	}
	if err != nil {
		return apperror.NewQueryError("profiles", err)
	}

	b, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return apperror.NewInternal("failed to encode profile snapshot", err)
	}

	path := SnapshotPath(payload)
	err = uc.storage.Upload(ctx, service.BucketProfileSnapshots, path, bytes.NewReader(b), service.UploadOptions{
		ContentType:    "application/json",
		AllowOverwrite: true,
	})
	if err != nil {
		return apperror.NewUploadError(service.BucketProfileSnapshots, path, err)
	}

	l.Info("Profile snapshot stored", zap.String("bucket", service.BucketProfileSnapshots), zap.String("path", path), zap.Int("size", len(b)))
	return nil
}
