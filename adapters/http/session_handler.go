package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/auth"
	"github.com/encorestage/encore/pkg/logger"
)

// SessionHandler stores an access token issued by the auth service in an
// HttpOnly cookie. Passwords never pass through this service.
type SessionHandler struct {
	jwtSvc       *auth.JWTService
	cookieName   string
	secureCookie bool
	logger       logger.Logger
}

func NewSessionHandler(jwtSvc *auth.JWTService, cookieName string, secure bool, log logger.Logger) *SessionHandler {
	return &SessionHandler{jwtSvc: jwtSvc, cookieName: cookieName, secureCookie: secure, logger: log}
}

func (h *SessionHandler) SignIn(c *gin.Context) {
	token := strings.TrimSpace(c.PostForm("access_token"))
	if token == "" {
		c.Error(apperror.NewInvalidInput("'access_token' is required", nil))
		return
	}
	session, err := h.jwtSvc.ValidateToken(token)
	if err != nil {
		c.Error(apperror.NewUnauthorized("invalid access token", err))
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.secureCookie, true)

	h.logger.Info("Signed in", zap.String("user_id", session.SubjectID))
	c.Redirect(http.StatusSeeOther, "/profile")
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusSeeOther, "/")
}
