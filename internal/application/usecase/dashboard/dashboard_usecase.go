package dashboard

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/institution"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type DashboardState struct {
	InstitutionID string                `json:"institution_id"`
	Postings      []institution.Posting `json:"postings"`
	// Revealed lists postings whose applicants are shown.
	Revealed []string `json:"revealed"`
	Error    string   `json:"error,omitempty"`
}

func (s *DashboardState) IsRevealed(postingID string) bool {
	return slices.Contains(s.Revealed, postingID)
}

// DashboardUseCase shows an institution its postings and applicants. It is
// read-only.
type DashboardUseCase struct {
	source institution.Source
	views  service.ViewStore
	ids    service.IDGenerator
	logger logger.Logger
}

func NewDashboardUseCase(src institution.Source, v service.ViewStore, ids service.IDGenerator, log logger.Logger) *DashboardUseCase {
	return &DashboardUseCase{source: src, views: v, ids: ids, logger: log}
}

func viewKey(viewID string) string {
	return "dashboard:" + viewID
}

func (uc *DashboardUseCase) Mount(ctx context.Context, institutionID string) (string, *DashboardState, error) {
	viewID := uc.ids.NewID()
	state := &DashboardState{InstitutionID: institutionID, Postings: []institution.Posting{}, Revealed: []string{}}

	postings, err := uc.source.Postings(ctx, institutionID)
	if err != nil {
		uc.logger.Error("Failed to load postings", err, zap.String("institution_id", institutionID))
		state.Error = apperror.DisplayMessage(apperror.NewQueryError("postings", err))
	} else {
		state.Postings = postings
	}

	if err := uc.views.Put(ctx, viewKey(viewID), state); err != nil {
		return "", nil, apperror.NewInternal("failed to store dashboard view", err)
	}
	return viewID, state, nil
}

func (uc *DashboardUseCase) View(ctx context.Context, viewID string) (*DashboardState, error) {
	state := &DashboardState{}
	if err := uc.views.Get(ctx, viewKey(viewID), state); err != nil {
		return nil, err
	}
	return state, nil
}

// ToggleApplicants shows or hides a posting's applicants. The list comes from
// what was loaded at mount.
func (uc *DashboardUseCase) ToggleApplicants(ctx context.Context, viewID, postingID string) (*DashboardState, error) {
	state := &DashboardState{}
	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		if i := slices.Index(state.Revealed, postingID); i >= 0 {
			state.Revealed = slices.Delete(state.Revealed, i, i+1)
			return nil
		}
		state.Revealed = append(state.Revealed, postingID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (uc *DashboardUseCase) Unmount(ctx context.Context, viewID string) error {
	return uc.views.Delete(ctx, viewKey(viewID))
}
