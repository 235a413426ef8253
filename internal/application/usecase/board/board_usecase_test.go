package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorestage/encore/adapters/persistence"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type stubOpportunities struct {
	rows  []record.Row
	err   error
	calls int
}

func (s *stubOpportunities) List(_ context.Context, _ opportunity.Query) ([]record.Row, error) {
	s.calls++
	return s.rows, s.err
}

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string  { g.n++; return fmt.Sprintf("id-%d", g.n) }
func (g *seqIDs) Suffix() string { return "sfx" }

func newBoard(repo opportunity.Repository) *BoardUseCase {
	views := persistence.NewMemoryViewStore(time.Hour, nil)
	return NewBoardUseCase(repo, views, &seqIDs{}, logger.NewNop())
}

func galaRow() record.Row {
	return record.Row{
		"id": "op_9", "title": "Gala Concert", "type": "gig", "location": "Rome",
		"role_tags": []any{"Baritone"}, "level": "professional",
		"deadline": "2025-11-01", "pay_range": "€500",
	}
}

func TestBoard_MountLoadsOnce(t *testing.T) {
	repo := &stubOpportunities{rows: []record.Row{galaRow()}}
	uc := newBoard(repo)

	viewID, state, err := uc.Mount(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, viewID)
	assert.Equal(t, StateLoaded, state.State)
	require.Len(t, state.Opportunities, 1)
	assert.Equal(t, []string{"Baritone"}, state.Opportunities[0].RoleTags)
	assert.Equal(t, 1, repo.calls)
}

func TestBoard_ApplyMakesNoGatewayCall(t *testing.T) {
	repo := &stubOpportunities{rows: []record.Row{galaRow()}}
	uc := newBoard(repo)
	ctx := context.Background()

	viewID, state, err := uc.Mount(ctx)
	require.NoError(t, err)
	assert.False(t, state.IsApplied("op_9"))

	state, err = uc.Apply(ctx, viewID, "op_9")
	require.NoError(t, err)
	assert.True(t, state.IsApplied("op_9"))

	state, err = uc.Apply(ctx, viewID, "op_9")
	require.NoError(t, err)
	assert.Equal(t, []string{"op_9", "op_9"}, state.Applied)

	viewed, err := uc.View(ctx, viewID)
	require.NoError(t, err)
	assert.True(t, viewed.IsApplied("op_9"))
	assert.Equal(t, 1, repo.calls)
}

func TestBoard_QueryErrorIsShown(t *testing.T) {
	repo := &stubOpportunities{err: &apperror.GatewayError{Op: "opportunities", Message: "relation does not exist"}}
	uc := newBoard(repo)

	_, state, err := uc.Mount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateError, state.State)
	assert.Equal(t, "relation does not exist", state.Error)
	assert.Empty(t, state.Opportunities)
}

func TestBoard_EmptyListIsLoaded(t *testing.T) {
	uc := newBoard(&stubOpportunities{})

	_, state, err := uc.Mount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateLoaded, state.State)
	assert.NotNil(t, state.Opportunities)
	assert.Empty(t, state.Opportunities)
}

func TestBoard_SeparateMountsKeepSeparateMarks(t *testing.T) {
	uc := newBoard(&stubOpportunities{rows: []record.Row{galaRow()}})
	ctx := context.Background()

	first, _, err := uc.Mount(ctx)
	require.NoError(t, err)
	second, _, err := uc.Mount(ctx)
	require.NoError(t, err)

	_, err = uc.Apply(ctx, first, "op_9")
	require.NoError(t, err)

	other, err := uc.View(ctx, second)
	require.NoError(t, err)
	assert.False(t, other.IsApplied("op_9"))
}

func TestBoard_UnmountedViewIsGone(t *testing.T) {
	uc := newBoard(&stubOpportunities{})
	ctx := context.Background()

	viewID, _, err := uc.Mount(ctx)
	require.NoError(t, err)
	require.NoError(t, uc.Unmount(ctx, viewID))

	_, err = uc.Apply(ctx, viewID, "op_9")
	assert.True(t, errors.Is(err, service.ErrViewGone))
}

func TestFeed_ListsOpportunities(t *testing.T) {
	uc := NewFeedUseCase(&stubOpportunities{rows: []record.Row{galaRow()}}, "https://encore.example/", logger.NewNop())

	feed, err := uc.Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Gala Concert", feed.Items[0].Title)
	assert.Equal(t, "https://encore.example/#op-op_9", feed.Items[0].Link.Href)
	assert.Contains(t, feed.Items[0].Description, "Baritone")
	assert.Equal(t, 2025, feed.Items[0].Created.Year())

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "Gala Concert")
}

func TestFeed_QueryError(t *testing.T) {
	uc := NewFeedUseCase(&stubOpportunities{err: errors.New("boom")}, "", logger.NewNop())
	_, err := uc.Execute(context.Background())
	assert.ErrorIs(t, err, apperror.ErrQuery)
}
