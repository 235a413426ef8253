package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/application/usecase/board"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type BoardHandler struct {
	boardUseCase *board.BoardUseCase
	logger       logger.Logger
}

func NewBoardHandler(uc *board.BoardUseCase, log logger.Logger) *BoardHandler {
	return &BoardHandler{boardUseCase: uc, logger: log}
}

func viewURL(page, viewID string) string {
	return page + "?view=" + url.QueryEscape(viewID)
}

// Show mounts a fresh board, or renders an existing one when ?view= names it.
func (h *BoardHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()

	viewID := c.Query("view")
	var (
		state *board.BoardState
		err   error
	)
	if viewID != "" {
		state, err = h.boardUseCase.View(ctx, viewID)
		if errors.Is(err, service.ErrViewGone) {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
	} else {
		viewID, state, err = h.boardUseCase.Mount(ctx)
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to load board", err))
		return
	}

	c.HTML(http.StatusOK, pageBoard, boardPage{
		BasePage: newBasePage(c, "Opportunities"),
		ViewID:   viewID,
		Board:    state,
	})
}

func (h *BoardHandler) Apply(c *gin.Context) {
	viewID := c.Param("view")
	_, err := h.boardUseCase.Apply(c.Request.Context(), viewID, c.Param("id"))
	if errors.Is(err, service.ErrViewGone) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to apply", err))
		return
	}
	c.Redirect(http.StatusSeeOther, viewURL("/", viewID))
}

func (h *BoardHandler) Close(c *gin.Context) {
	if err := h.boardUseCase.Unmount(c.Request.Context(), c.Param("view")); err != nil {
		c.Error(apperror.NewInternal("failed to close board", err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
