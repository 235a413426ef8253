package http

import (
	"github.com/gin-gonic/gin"

	"github.com/encorestage/encore/internal/application/usecase/board"
	"github.com/encorestage/encore/pkg/logger"
)

type RSSHandler struct {
	feedUseCase *board.FeedUseCase
	logger      logger.Logger
}

func NewRSSHandler(uc *board.FeedUseCase, log logger.Logger) *RSSHandler {
	return &RSSHandler{
		feedUseCase: uc,
		logger:      log,
	}
}

func (h *RSSHandler) GenerateRSS(c *gin.Context) {

	feed, err := h.feedUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")

	if err := feed.WriteRss(c.Writer); err != nil {

		h.logger.Error("Failed to write RSS feed to response", err)
	}
}
