package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

// FeedUseCase publishes the opportunity list as a syndication feed.
type FeedUseCase struct {
	opportunities opportunity.Repository
	baseURL       string
	now           func() time.Time
	logger        logger.Logger
}

func NewFeedUseCase(r opportunity.Repository, baseURL string, log logger.Logger) *FeedUseCase {
	return &FeedUseCase{
		opportunities: r,
		baseURL:       strings.TrimRight(baseURL, "/"),
		now:           time.Now,
		logger:        log,
	}
}

func (uc *FeedUseCase) Execute(ctx context.Context) (*feeds.Feed, error) {
	rows, err := uc.opportunities.List(ctx, opportunity.Query{})
	if err != nil {
		uc.logger.Error("Failed to list opportunities for feed", err)
		return nil, apperror.NewQueryError("opportunities", err)
	}

	feed := &feeds.Feed{
		Title:       "Encore - Opportunities",
		Link:        &feeds.Link{Href: uc.baseURL + "/"},
		Description: "Auditions, gigs and competitions for performing artists.",
		Created:     uc.now(),
	}

	for _, op := range opportunity.FromRows(rows) {
		item := &feeds.Item{
			Id:          op.ID,
			Title:       op.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/#op-%s", uc.baseURL, op.ID)},
			Description: describe(op),
		}
		if d, err := time.Parse(time.DateOnly, op.Deadline); err == nil {
			item.Created = d
		}
		feed.Items = append(feed.Items, item)
	}

	uc.logger.Info("RSS feed generated successfully", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}

func describe(op opportunity.Opportunity) string {
	parts := []string{string(op.Type)}
	if op.Location != "" {
		parts = append(parts, op.Location)
	}
	if len(op.RoleTags) > 0 {
		parts = append(parts, strings.Join(op.RoleTags, ", "))
	}
	if op.Level != "" {
		parts = append(parts, op.Level)
	}
	if op.Deadline != "" {
		parts = append(parts, "Deadline: "+op.Deadline)
	}
	if op.PayRange != "" {
		parts = append(parts, "Pay: "+op.PayRange)
	}
	return strings.Join(parts, " • ")
}
