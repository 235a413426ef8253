package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/application/usecase/access"
	"github.com/encorestage/encore/internal/application/usecase/editor"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type ProfileHandler struct {
	accessUseCase *access.AccessUseCase
	editorUseCase *editor.EditorUseCase
	maxMedia      int
	logger        logger.Logger
}

func NewProfileHandler(accessUC *access.AccessUseCase, editorUC *editor.EditorUseCase, maxMedia int, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		accessUseCase: accessUC,
		editorUseCase: editorUC,
		maxMedia:      maxMedia,
		logger:        log,
	}
}

// Show gates the editor on the artist role, then mounts or renders it.
func (h *ProfileHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	session, sessionErr := GetSessionFromGinContext(c)

	decision := h.accessUseCase.Execute(ctx, session, sessionErr)
	switch decision.State {
	case access.StateSignedOut:
		c.HTML(http.StatusUnauthorized, pageProfileGate, profileGatePage{
			BasePage:  newBasePage(c, "Profile"),
			Message:   decision.Message,
			SignedOut: true,
		})
		return
	case access.StateDenied:
		c.HTML(http.StatusForbidden, pageProfileGate, profileGatePage{
			BasePage: newBasePage(c, "Profile"),
			Message:  decision.Message,
		})
		return
	}

	viewID := c.Query("view")
	var (
		state *editor.EditorState
		err   error
	)
	if viewID != "" {
		state, err = h.editorUseCase.View(ctx, viewID)
		if errors.Is(err, service.ErrViewGone) {
			c.Redirect(http.StatusSeeOther, "/profile")
			return
		}
		if err == nil && state.OwnerID != session.SubjectID {
			c.Error(apperror.NewPermissionDenied("editor view belongs to another user"))
			return
		}
	} else {
		viewID, state, err = h.editorUseCase.Mount(ctx, session.SubjectID)
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to load profile editor", err))
		return
	}

	c.HTML(http.StatusOK, pageProfile, profilePage{
		BasePage: newBasePage(c, "Profile"),
		ViewID:   viewID,
		Editor:   state,
		Fields:   profileFields(state.Profile),
		MaxMedia: h.maxMedia,
	})
}

// ownedView checks that the :view parameter names a live editor owned by
// the signed-in user, and that the user still holds the artist role. It
// writes the response when it returns false.
func (h *ProfileHandler) ownedView(c *gin.Context) (string, bool) {
	ctx := c.Request.Context()
	viewID := c.Param("view")
	session, sessionErr := GetSessionFromGinContext(c)

	decision := h.accessUseCase.Execute(ctx, session, sessionErr)
	switch decision.State {
	case access.StateSignedOut:
		c.Redirect(http.StatusSeeOther, "/profile")
		return "", false
	case access.StateDenied:
		c.Error(apperror.NewPermissionDenied(decision.Message))
		return "", false
	}
	subject := session.SubjectID

	state, err := h.editorUseCase.View(ctx, viewID)
	if errors.Is(err, service.ErrViewGone) {
		c.Redirect(http.StatusSeeOther, "/profile")
		return "", false
	}
	if err != nil {
		c.Error(apperror.NewInternal("failed to load profile editor", err))
		return "", false
	}
	if state.OwnerID != subject {
		c.Error(apperror.NewPermissionDenied("editor view belongs to another user"))
		return "", false
	}
	return viewID, true
}

func (h *ProfileHandler) finish(c *gin.Context, viewID string, err error) {
	if errors.Is(err, service.ErrViewGone) {
		h.logger.Info("Editor closed before the action finished", zap.String("view_id", viewID))
		c.Redirect(http.StatusSeeOther, "/profile")
		return
	}
	if err != nil {
		c.Error(apperror.NewInternal("profile action failed", err))
		return
	}
	c.Redirect(http.StatusSeeOther, viewURL("/profile", viewID))
}

func toFile(fh *multipart.FileHeader) editor.File {
	return editor.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *ProfileHandler) UpdateFields(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	var err error
	for _, f := range profile.ScalarFields {
		if v, present := c.GetPostForm(string(f)); present {
			if _, err = h.editorUseCase.UpdateField(c.Request.Context(), viewID, f, v); err != nil {
				break
			}
		}
	}
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'avatar' is required", err))
		return
	}
	_, err = h.editorUseCase.HandleAvatarUpload(c.Request.Context(), viewID, toFile(fh))
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) UploadMedia(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.Error(apperror.NewInvalidInput("'media' files are required", err))
		return
	}
	headers := form.File["media"]
	files := make([]editor.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toFile(fh))
	}
	_, err = h.editorUseCase.HandleMediaUpload(c.Request.Context(), viewID, files)
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) AddRepertoire(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	_, err := h.editorUseCase.AddRepertoire(c.Request.Context(), viewID)
	h.finish(c, viewID, err)
}

func localIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("localID"), 10, 64)
	if err != nil {
		c.Error(apperror.NewInvalidInput("repertoire id must be a number", err))
		return 0, false
	}
	return id, true
}

func (h *ProfileHandler) UpdateRepertoire(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	localID, ok := localIDParam(c)
	if !ok {
		return
	}
	var err error
	for _, f := range []profile.RepertoireField{profile.RepertoireTitle, profile.RepertoireComposer} {
		if v, present := c.GetPostForm(string(f)); present {
			if _, err = h.editorUseCase.UpdateRepertoire(c.Request.Context(), viewID, localID, f, v); err != nil {
				break
			}
		}
	}
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) RemoveRepertoire(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	localID, ok := localIDParam(c)
	if !ok {
		return
	}
	_, err := h.editorUseCase.RemoveRepertoire(c.Request.Context(), viewID, localID)
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) AddSchool(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	_, err := h.editorUseCase.AddSchool(c.Request.Context(), viewID, c.PostForm("school"))
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) RemoveSchool(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("school index must be a number", err))
		return
	}
	_, err = h.editorUseCase.RemoveSchool(c.Request.Context(), viewID, index)
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) AddCareer(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	_, err := h.editorUseCase.AddCareer(c.Request.Context(), viewID)
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) UpdateCareer(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	careerID := c.Param("id")
	var err error
	for _, f := range []profile.CareerField{profile.CareerTitle, profile.CareerDate, profile.CareerDescription} {
		if v, present := c.GetPostForm(string(f)); present {
			if _, err = h.editorUseCase.UpdateCareer(c.Request.Context(), viewID, careerID, f, v); err != nil {
				break
			}
		}
	}
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) AddCareerMedia(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	_, err = h.editorUseCase.AddCareerMedia(c.Request.Context(), viewID, c.Param("id"), toFile(fh))
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) Save(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	_, err := h.editorUseCase.SaveProfile(c.Request.Context(), viewID)
	h.finish(c, viewID, err)
}

func (h *ProfileHandler) Close(c *gin.Context) {
	viewID, ok := h.ownedView(c)
	if !ok {
		return
	}
	if err := h.editorUseCase.Unmount(c.Request.Context(), viewID); err != nil {
		c.Error(apperror.NewInternal("failed to close profile editor", err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
