package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/application/usecase/dashboard"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type InstitutionHandler struct {
	dashboardUseCase *dashboard.DashboardUseCase
	logger           logger.Logger
}

func NewInstitutionHandler(uc *dashboard.DashboardUseCase, log logger.Logger) *InstitutionHandler {
	return &InstitutionHandler{dashboardUseCase: uc, logger: log}
}

func (h *InstitutionHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()

	viewID := c.Query("view")
	var (
		state *dashboard.DashboardState
		err   error
	)
	if viewID != "" {
		state, err = h.dashboardUseCase.View(ctx, viewID)
		if errors.Is(err, service.ErrViewGone) {
			c.Redirect(http.StatusSeeOther, "/institution")
			return
		}
	} else {
		viewID, state, err = h.dashboardUseCase.Mount(ctx, subjectOf(c))
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to load dashboard", err))
		return
	}

	c.HTML(http.StatusOK, pageInstitution, institutionPage{
		BasePage:  newBasePage(c, "Institution"),
		ViewID:    viewID,
		Dashboard: state,
	})
}

func (h *InstitutionHandler) ToggleApplicants(c *gin.Context) {
	viewID := c.Param("view")
	_, err := h.dashboardUseCase.ToggleApplicants(c.Request.Context(), viewID, c.Param("id"))
	if errors.Is(err, service.ErrViewGone) {
		c.Redirect(http.StatusSeeOther, "/institution")
		return
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to toggle applicants", err))
		return
	}
	c.Redirect(http.StatusSeeOther, viewURL("/institution", viewID))
}

func (h *InstitutionHandler) Close(c *gin.Context) {
	if err := h.dashboardUseCase.Unmount(c.Request.Context(), c.Param("view")); err != nil {
		c.Error(apperror.NewInternal("failed to close dashboard", err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
