package editor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/tracing"
)

// File is one user-selected file. Open may be called once.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type storedObject struct {
	Bucket string
	Path   string
	URL    string
}

func extension(name string) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return ext
	}
	return "bin"
}

// objectPath is {prefix}/{unixMillis}-{suffix}.{ext}. The random suffix
// makes collisions negligible; uploads still refuse to overwrite.
func (uc *EditorUseCase) objectPath(prefix, name string) string {
	return fmt.Sprintf("%s/%d-%s.%s", prefix, uc.now().UnixMilli(), uc.ids.Suffix(), extension(name))
}

// UploadToBucket stores file under pathPrefix without overwrite and returns
// its public URL.
func (uc *EditorUseCase) UploadToBucket(ctx context.Context, bucket string, file File, pathPrefix string) (string, error) {
	obj, err := uc.upload(ctx, bucket, file, pathPrefix)
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

func (uc *EditorUseCase) upload(ctx context.Context, bucket string, file File, pathPrefix string) (*storedObject, error) {
	path := uc.objectPath(pathPrefix, file.Name)

	ctx, span := tracing.Tracer("editor").Start(ctx, "editor.uploadToBucket")
	defer span.End()

	if file.Open == nil {
		return nil, apperror.NewUploadError(bucket, path, fmt.Errorf("no file content for %q", file.Name))
	}
	body, err := file.Open()
	if err != nil {
		return nil, apperror.NewUploadError(bucket, path, err)
	}
	defer body.Close()

	opts := service.UploadOptions{ContentType: file.ContentType, AllowOverwrite: false}
	if err := uc.storage.Upload(ctx, bucket, path, body, opts); err != nil {
		span.RecordError(err)
		uc.logger.Error("Upload failed", err, zap.String("bucket", bucket), zap.String("path", path))
		return nil, apperror.NewUploadError(bucket, path, err)
	}
	url, err := uc.storage.PublicURL(ctx, bucket, path)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Public URL lookup failed", err, zap.String("bucket", bucket), zap.String("path", path))
		return nil, apperror.NewUploadError(bucket, path, err)
	}
	return &storedObject{Bucket: bucket, Path: path, URL: url}, nil
}

// HandleAvatarUpload replaces the avatar URL on success. The previous object
// is left in storage.
func (uc *EditorUseCase) HandleAvatarUpload(ctx context.Context, viewID string, file File) (*EditorState, error) {
	started, err := uc.begin(ctx, viewID, nil)
	if err != nil {
		return nil, err
	}

	obj, upErr := uc.upload(ctx, service.BucketAvatars, file, started.OwnerID+"/avatar")

	return uc.settle(ctx, viewID, "avatar", func(s *EditorState) {
		if upErr != nil {
			s.LastError = apperror.DisplayMessage(upErr)
			return
		}
		s.Profile.AvatarURL = obj.URL
	})
}

// HandleMediaUpload uploads up to MaxMediaPerBatch files concurrently. The
// batch is all or nothing: if any upload fails no item is added. Objects that
// did reach storage stay there.
func (uc *EditorUseCase) HandleMediaUpload(ctx context.Context, viewID string, files []File) (*EditorState, error) {
	if len(files) > uc.opts.MaxMediaPerBatch {
		files = files[:uc.opts.MaxMediaPerBatch]
	}

	started, err := uc.begin(ctx, viewID, nil)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return started, nil
	}

	items := make([]profile.MediaItem, len(files))
	objects := make([]*storedObject, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			obj, err := uc.upload(gctx, service.BucketArtistMedia, f, started.OwnerID+"/media")
			if err != nil {
				return err
			}
			objects[i] = obj
			items[i] = profile.MediaItem{
				ID:   uc.ids.NewID(),
				Kind: profile.ClassifyKind(f.ContentType),
				URL:  obj.URL,
				Name: f.Name,
			}
			return nil
		})
	}
	batchErr := g.Wait()

	state, err := uc.settle(ctx, viewID, "media", func(s *EditorState) {
		if batchErr != nil {
			s.LastError = apperror.DisplayMessage(batchErr)
			return
		}
		s.Profile.PrependMedia(items...)
	})
	if err != nil {
		return nil, err
	}
	if batchErr == nil {
		uc.logger.Info("Media batch uploaded", zap.String("owner_id", started.OwnerID), zap.Int("count", len(items)))
		uc.publishMedia(ctx, started.OwnerID, items, objects)
	}
	return state, nil
}

// AddCareerMedia uploads one file for a career milestone and puts its URL
// first. Unknown milestones are a no-op.
func (uc *EditorUseCase) AddCareerMedia(ctx context.Context, viewID, careerID string, file File) (*EditorState, error) {
	var exists bool
	started, err := uc.begin(ctx, viewID, func(s *EditorState) error {
		exists = s.Profile.HasCareer(careerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return started, nil
	}

	prefix := fmt.Sprintf("%s/career/%s", started.OwnerID, careerID)
	obj, upErr := uc.upload(ctx, service.BucketArtistMedia, file, prefix)

	return uc.settle(ctx, viewID, "career_media", func(s *EditorState) {
		if upErr != nil {
			s.LastError = apperror.DisplayMessage(upErr)
			return
		}
		s.Profile.PrependCareerMedia(careerID, obj.URL)
	})
}

func (uc *EditorUseCase) publishMedia(ctx context.Context, ownerID string, items []profile.MediaItem, objects []*storedObject) {
	if uc.events == nil {
		return
	}
	payloads := make([]event.MediaEventPayload, len(items))
	for i, it := range items {
		payloads[i] = event.MediaEventPayload{
			EventType: event.MediaEventTypeUploaded,
			OwnerID:   ownerID,
			MediaID:   it.ID,
			Kind:      it.Kind,
			Bucket:    objects[i].Bucket,
			Path:      objects[i].Path,
			URL:       it.URL,
		}
	}
	go func() {
		pctx := context.WithoutCancel(ctx)
		for _, p := range payloads {
			if err := uc.events.PublishMediaEvent(pctx, p); err != nil {
				uc.logger.Error("Failed to publish Kafka 'media.uploaded' event", err, zap.String("media_id", p.MediaID))
			}
		}
	}()
}
