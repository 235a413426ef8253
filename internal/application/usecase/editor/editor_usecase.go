package editor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/internal/domain/rendition"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
	"github.com/encorestage/encore/pkg/tracing"
)

const NoticeSaved = "Profile saved."

// saveLease bounds how long a Saving mark blocks later saves. An older mark
// belongs to a save whose result never reached the view.
const saveLease = 2 * time.Minute

// EditorState is one mounted profile editor. The profile is owned by the view
// instance and is never re-fetched after mount.
type EditorState struct {
	OwnerID     string                `json:"owner_id"`
	Profile     profile.ArtistProfile `json:"profile"`
	LastError   string                `json:"last_error,omitempty"`
	Notice      string                `json:"notice,omitempty"`
	Saving      bool                  `json:"saving"`
	SavingSince time.Time             `json:"saving_since"`
	NextLocalID int64                 `json:"next_local_id"`
	// Thumbnails maps media URLs to preview URLs known at mount time.
	Thumbnails map[string]string `json:"thumbnails,omitempty"`
}

type Options struct {
	HydrateOnMount   bool
	MaxMediaPerBatch int
}

type EditorUseCase struct {
	profiles   profile.Repository
	renditions rendition.Repository
	storage    service.ObjectStorage
	events     service.EventPublisher
	views      service.ViewStore
	ids        service.IDGenerator
	now        service.Clock
	opts       Options
	logger     logger.Logger
}

func NewEditorUseCase(
	profiles profile.Repository,
	renditions rendition.Repository,
	storage service.ObjectStorage,
	events service.EventPublisher,
	views service.ViewStore,
	ids service.IDGenerator,
	now service.Clock,
	opts Options,
	log logger.Logger,
) *EditorUseCase {
	if now == nil {
		now = time.Now
	}
	if opts.MaxMediaPerBatch <= 0 {
		opts.MaxMediaPerBatch = 6
	}
	return &EditorUseCase{
		profiles:   profiles,
		renditions: renditions,
		storage:    storage,
		events:     events,
		views:      views,
		ids:        ids,
		now:        now,
		opts:       opts,
		logger:     log,
	}
}

func viewKey(viewID string) string {
	return "editor:" + viewID
}

// Mount opens an editor for ownerID. With hydration on, the saved profile is
// loaded; a missing profile leaves the blank defaults and a failed load keeps
// them too but records the error.
func (uc *EditorUseCase) Mount(ctx context.Context, ownerID string) (string, *EditorState, error) {
	viewID := uc.ids.NewID()
	state := &EditorState{OwnerID: ownerID, Profile: profile.New(ownerID), NextLocalID: 1}
	if err := uc.views.Put(ctx, viewKey(viewID), state); err != nil {
		return "", nil, apperror.NewInternal("failed to store editor view", err)
	}
	if !uc.opts.HydrateOnMount {
		return viewID, state, nil
	}

	loaded, loadErr := uc.loadProfile(ctx, ownerID)
	thumbs := uc.loadThumbnails(ctx, loaded)

	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		if loadErr != nil {
			state.LastError = apperror.DisplayMessage(loadErr)
			return nil
		}
		if loaded != nil {
			state.Profile = *loaded
			state.NextLocalID = loaded.MaxLocalID() + 1
		}
		state.Thumbnails = thumbs
		return nil
	})
	if err != nil {
		return viewID, nil, err
	}
	return viewID, state, nil
}

func (uc *EditorUseCase) loadProfile(ctx context.Context, ownerID string) (*profile.ArtistProfile, error) {
	ctx, span := tracing.Tracer("editor").Start(ctx, "editor.loadProfile")
	defer span.End()

	row, err := uc.profiles.GetByOwner(ctx, ownerID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to load profile", err, zap.String("owner_id", ownerID))
		return nil, apperror.NewQueryError("profiles", err)
	}
	p := profile.FromRow(row)
	p.OwnerID = ownerID
	return &p, nil
}

// loadThumbnails is best effort; previews are cosmetic.
func (uc *EditorUseCase) loadThumbnails(ctx context.Context, p *profile.ArtistProfile) map[string]string {
	if uc.renditions == nil || p == nil || len(p.Media) == 0 {
		return nil
	}
	urls := make([]string, 0, len(p.Media))
	for _, m := range p.Media {
		urls = append(urls, m.URL)
	}
	found, err := uc.renditions.FindBySourceURLs(ctx, urls)
	if err != nil {
		uc.logger.Warn("Failed to load media thumbnails", zap.Error(err), zap.String("owner_id", p.OwnerID))
		return nil
	}
	thumbs := make(map[string]string, len(found))
	for src, r := range found {
		thumbs[src] = r.ThumbnailURL
	}
	return thumbs
}

func (uc *EditorUseCase) View(ctx context.Context, viewID string) (*EditorState, error) {
	state := &EditorState{}
	if err := uc.views.Get(ctx, viewKey(viewID), state); err != nil {
		return nil, err
	}
	return state, nil
}

// Unmount discards the view. Operations still in flight for it will find it
// gone and drop their results.
func (uc *EditorUseCase) Unmount(ctx context.Context, viewID string) error {
	return uc.views.Delete(ctx, viewKey(viewID))
}

// edit applies a synchronous change to the view's profile.
func (uc *EditorUseCase) edit(ctx context.Context, viewID string, fn func(s *EditorState)) (*EditorState, error) {
	state := &EditorState{}
	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		state.Notice = ""
		fn(state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// begin is the first half of an operation that waits on the gateway: it
// clears the previous error and returns the state as it was when the
// operation started.
func (uc *EditorUseCase) begin(ctx context.Context, viewID string, fn func(s *EditorState) error) (*EditorState, error) {
	state := &EditorState{}
	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		state.LastError = ""
		state.Notice = ""
		if fn != nil {
			return fn(state)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// settle is the second half: it applies the result to whatever the view
// holds now. A view unmounted in the meantime drops the result.
func (uc *EditorUseCase) settle(ctx context.Context, viewID, op string, fn func(s *EditorState)) (*EditorState, error) {
	state := &EditorState{}
	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		fn(state)
		return nil
	})
	if errors.Is(err, service.ErrViewGone) {
		uc.logger.Info("Dropping result for unmounted editor", zap.String("view_id", viewID), zap.String("op", op))
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (uc *EditorUseCase) UpdateField(ctx context.Context, viewID string, f profile.Field, value string) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.SetField(f, value)
	})
}

// AddRepertoire appends a row whose local id comes from the view's counter,
// so ids stay unique however fast rows are added.
func (uc *EditorUseCase) AddRepertoire(ctx context.Context, viewID string) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		if next := s.Profile.MaxLocalID() + 1; s.NextLocalID < next {
			s.NextLocalID = next
		}
		s.Profile.AddRepertoire(s.NextLocalID)
		s.NextLocalID++
	})
}

func (uc *EditorUseCase) UpdateRepertoire(ctx context.Context, viewID string, localID int64, f profile.RepertoireField, value string) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.UpdateRepertoire(localID, f, value)
	})
}

func (uc *EditorUseCase) RemoveRepertoire(ctx context.Context, viewID string, localID int64) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.RemoveRepertoire(localID)
	})
}

func (uc *EditorUseCase) AddSchool(ctx context.Context, viewID, text string) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.AddSchool(text)
	})
}

func (uc *EditorUseCase) RemoveSchool(ctx context.Context, viewID string, index int) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.RemoveSchool(index)
	})
}

// AddCareer prepends an empty milestone dated today.
func (uc *EditorUseCase) AddCareer(ctx context.Context, viewID string) (*EditorState, error) {
	id := uc.ids.NewID()
	date := uc.now().Format(time.DateOnly)
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.AddCareer(id, date)
	})
}

func (uc *EditorUseCase) UpdateCareer(ctx context.Context, viewID, careerID string, f profile.CareerField, value string) (*EditorState, error) {
	return uc.edit(ctx, viewID, func(s *EditorState) {
		s.Profile.UpdateCareer(careerID, f, value)
	})
}

// SaveProfile upserts the whole profile. A save requested while another is
// running is ignored and leaves the view untouched.
func (uc *EditorUseCase) SaveProfile(ctx context.Context, viewID string) (*EditorState, error) {
	var (
		skip bool
		row  record.Row
	)
	started := &EditorState{}
	err := uc.views.Update(ctx, viewKey(viewID), started, func() error {
		if started.Saving && uc.now().Sub(started.SavingSince) < saveLease {
			skip = true
			return nil
		}
		started.LastError = ""
		started.Notice = ""
		started.Saving = true
		started.SavingSince = uc.now()
		row = started.Profile.ToRow()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skip {
		return started, nil
	}

	l := uc.logger.With(zap.String("owner_id", started.OwnerID), zap.String("view_id", viewID))

	saveErr := uc.upsert(ctx, row)
	if saveErr != nil {
		l.Error("Failed to save profile", saveErr)
	}

	state, err := uc.settle(ctx, viewID, "save", func(s *EditorState) {
		s.Saving = false
		s.SavingSince = time.Time{}
		if saveErr != nil {
			s.LastError = apperror.DisplayMessage(saveErr)
			return
		}
		s.Notice = NoticeSaved
	})
	if err != nil && !errors.Is(err, service.ErrViewGone) {
		l.Error("Failed to record save result", err)
		uc.clearSaving(ctx, viewID, l)
	}
	if saveErr == nil {
		l.Info("Profile saved")
		uc.publishSaved(ctx, started.OwnerID, len(started.Profile.Media))
	}
	return state, err
}

// clearSaving drops the Saving mark on its own when the full settle failed.
// If this fails too, saveLease lets the next save through.
func (uc *EditorUseCase) clearSaving(ctx context.Context, viewID string, l logger.Logger) {
	state := &EditorState{}
	err := uc.views.Update(context.WithoutCancel(ctx), viewKey(viewID), state, func() error {
		state.Saving = false
		state.SavingSince = time.Time{}
		return nil
	})
	if err != nil && !errors.Is(err, service.ErrViewGone) {
		l.Error("Failed to clear saving flag", err)
	}
}

func (uc *EditorUseCase) upsert(ctx context.Context, row record.Row) error {
	ctx, span := tracing.Tracer("editor").Start(ctx, "editor.saveProfile")
	defer span.End()

	if err := uc.profiles.Upsert(ctx, row); err != nil {
		span.RecordError(err)
		return apperror.NewSaveError(err)
	}
	return nil
}

func (uc *EditorUseCase) publishSaved(ctx context.Context, ownerID string, mediaCount int) {
	if uc.events == nil {
		return
	}
	payload := event.ProfileEventPayload{
		EventType:  event.ProfileEventTypeSaved,
		OwnerID:    ownerID,
		MediaCount: mediaCount,
		SavedAt:    uc.now().UTC(),
	}
	go func() {
		if err := uc.events.PublishProfileEvent(context.WithoutCancel(ctx), payload); err != nil {
			uc.logger.Error("Failed to publish Kafka 'profile.saved' event", err, zap.String("owner_id", ownerID))
		}
	}()
}
