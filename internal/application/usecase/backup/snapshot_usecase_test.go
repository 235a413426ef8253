package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type stubProfiles struct {
	rows map[string]record.Row
	err  error
}

func (s *stubProfiles) GetByOwner(_ context.Context, ownerID string) (record.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	row, ok := s.rows[ownerID]
	if !ok {
		return nil, apperror.NewNotFound("profile", ownerID)
	}
	return row, nil
}

func (s *stubProfiles) Upsert(context.Context, record.Row) error { return nil }

type upload struct {
	bucket, path string
	body         []byte
	opts         service.UploadOptions
}

type recordingStorage struct {
	uploads []upload
	err     error
}

func (r *recordingStorage) Upload(_ context.Context, bucket, path string, body io.Reader, opts service.UploadOptions) error {
	if r.err != nil {
		return r.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	r.uploads = append(r.uploads, upload{bucket: bucket, path: path, body: b, opts: opts})
	return nil
}

func (r *recordingStorage) PublicURL(_ context.Context, bucket, path string) (string, error) {
	return "https://cdn.test/" + bucket + "/" + path, nil
}

func savedEvent(owner string) event.ProfileEventPayload {
	return event.ProfileEventPayload{
		EventType: event.ProfileEventTypeSaved,
		OwnerID:   owner,
		SavedAt:   time.Date(2025, 3, 4, 10, 11, 12, 345_000_000, time.UTC),
	}
}

func TestSnapshotUseCase_StoresRowAsJSON(t *testing.T) {
	profiles := &stubProfiles{rows: map[string]record.Row{
		"u1": {"owner_id": "u1", "display_name": "Giulia"},
	}}
	storage := &recordingStorage{}
	uc := NewSnapshotUseCase(profiles, storage, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), savedEvent("u1")))

	require.Len(t, storage.uploads, 1)
	up := storage.uploads[0]
	assert.Equal(t, service.BucketProfileSnapshots, up.bucket)
	assert.Equal(t, "u1/2025-03-04_10-11-12.345.json", up.path)
	assert.Equal(t, "application/json", up.opts.ContentType)
	assert.True(t, up.opts.AllowOverwrite)

	var got map[string]any
	require.NoError(t, json.Unmarshal(up.body, &got))
	assert.Equal(t, "Giulia", got["display_name"])
}

func TestSnapshotUseCase_SkipsWhatItCannotArchive(t *testing.T) {
	storage := &recordingStorage{}
	uc := NewSnapshotUseCase(&stubProfiles{rows: map[string]record.Row{}}, storage, logger.NewNop())

	assert.NoError(t, uc.Execute(context.Background(), savedEvent("gone")))
	assert.NoError(t, uc.Execute(context.Background(), event.ProfileEventPayload{EventType: "profile.deleted", OwnerID: "u1"}))
	assert.NoError(t, uc.Execute(context.Background(), savedEvent("")))
	assert.Empty(t, storage.uploads)
}

func TestSnapshotUseCase_Failures(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		uc := NewSnapshotUseCase(&stubProfiles{err: errors.New("connection reset")}, &recordingStorage{}, logger.NewNop())
		err := uc.Execute(context.Background(), savedEvent("u1"))
		assert.ErrorIs(t, err, apperror.ErrQuery)
	})

	t.Run("upload", func(t *testing.T) {
		profiles := &stubProfiles{rows: map[string]record.Row{"u1": {"owner_id": "u1"}}}
		storage := &recordingStorage{err: &apperror.GatewayError{Op: "s3.put_object", Message: "Bucket not found"}}
		uc := NewSnapshotUseCase(profiles, storage, logger.NewNop())

		err := uc.Execute(context.Background(), savedEvent("u1"))
		assert.ErrorIs(t, err, apperror.ErrUpload)
		assert.Equal(t, "Bucket not found", apperror.DisplayMessage(err))
	})
}
