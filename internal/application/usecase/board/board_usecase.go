package board

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
	"github.com/encorestage/encore/pkg/tracing"
)

type LoadState string

const (
	StateNotLoaded LoadState = "not-loaded"
	StateLoading   LoadState = "loading"
	StateLoaded    LoadState = "loaded"
	StateError     LoadState = "error"
)

// BoardState is one mounted opportunity list. Applied is session local and
// may hold duplicates.
type BoardState struct {
	State         LoadState                 `json:"state"`
	Opportunities []opportunity.Opportunity `json:"opportunities"`
	Applied       []string                  `json:"applied"`
	Error         string                    `json:"error,omitempty"`
}

func (s *BoardState) IsApplied(id string) bool {
	return slices.Contains(s.Applied, id)
}

type BoardUseCase struct {
	opportunities opportunity.Repository
	views         service.ViewStore
	ids           service.IDGenerator
	logger        logger.Logger
}

func NewBoardUseCase(r opportunity.Repository, v service.ViewStore, ids service.IDGenerator, log logger.Logger) *BoardUseCase {
	return &BoardUseCase{opportunities: r, views: v, ids: ids, logger: log}
}

func viewKey(viewID string) string {
	return "board:" + viewID
}

// Mount creates a view instance and loads the list into it.
func (uc *BoardUseCase) Mount(ctx context.Context) (string, *BoardState, error) {
	viewID := uc.ids.NewID()
	state := &BoardState{State: StateLoading, Opportunities: []opportunity.Opportunity{}, Applied: []string{}}
	if err := uc.views.Put(ctx, viewKey(viewID), state); err != nil {
		return "", nil, apperror.NewInternal("failed to store board view", err)
	}

	ops, loadErr := uc.loadOpportunities(ctx)

	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		state.Error = ""
		if loadErr != nil {
			state.State = StateError
			state.Error = apperror.DisplayMessage(loadErr)
			return nil
		}
		state.State = StateLoaded
		state.Opportunities = ops
		return nil
	})
	if err != nil {
		return viewID, nil, err
	}
	return viewID, state, nil
}

// loadOpportunities runs the deadline-ordered query once. Failures are not
// retried.
func (uc *BoardUseCase) loadOpportunities(ctx context.Context) ([]opportunity.Opportunity, error) {
	ctx, span := tracing.Tracer("board").Start(ctx, "board.loadOpportunities")
	defer span.End()

	rows, err := uc.opportunities.List(ctx, opportunity.Query{})
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to list opportunities", err)
		return nil, apperror.NewQueryError("opportunities", err)
	}
	ops := opportunity.FromRows(rows)
	uc.logger.Debug("Loaded opportunities", zap.Int("count", len(ops)))
	return ops, nil
}

func (uc *BoardUseCase) View(ctx context.Context, viewID string) (*BoardState, error) {
	state := &BoardState{}
	if err := uc.views.Get(ctx, viewKey(viewID), state); err != nil {
		return nil, err
	}
	return state, nil
}

// Apply marks an opportunity as applied for this view only. Nothing is sent
// to the backend.
func (uc *BoardUseCase) Apply(ctx context.Context, viewID, opportunityID string) (*BoardState, error) {
	state := &BoardState{}
	err := uc.views.Update(ctx, viewKey(viewID), state, func() error {
		state.Applied = append(state.Applied, opportunityID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Applied to opportunity", zap.String("view_id", viewID), zap.String("opportunity_id", opportunityID))
	return state, nil
}

func (uc *BoardUseCase) Unmount(ctx context.Context, viewID string) error {
	return uc.views.Delete(ctx, viewKey(viewID))
}
