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

const (
	GinContextKeySession    = "session"
	GinContextKeySessionErr = "sessionErr"
)

// SessionMiddleware resolves the access token from the cookie or an
// Authorization header. It never aborts: pages decide what a missing or
// broken session means for them.
func SessionMiddleware(jwtSvc *auth.JWTService, cookieName string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if cookie, err := c.Cookie(cookieName); err == nil {
			token = cookie
		}

		if token != "" {
			session, err := jwtSvc.ValidateToken(token)
			if err != nil {
				log.Debug("Rejected access token", zap.Error(err))
				c.Set(GinContextKeySessionErr, err)
			} else {
				c.Set(GinContextKeySession, session)
			}
		}
		c.Next()
	}
}

// GetSessionFromGinContext returns the signed-in session, nil when signed
// out, and the error that prevented resolving it.
func GetSessionFromGinContext(c *gin.Context) (*auth.Session, error) {
	var sessionErr error
	if v, ok := c.Get(GinContextKeySessionErr); ok {
		sessionErr, _ = v.(error)
	}
	v, ok := c.Get(GinContextKeySession)
	if !ok {
		return nil, sessionErr
	}
	session, _ := v.(*auth.Session)
	return session, sessionErr
}

func subjectOf(c *gin.Context) string {
	session, _ := GetSessionFromGinContext(c)
	if session == nil {
		return ""
	}
	return session.SubjectID
}

// ErrorMiddleware renders the last error attached with c.Error as the error
// page.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)

		message := apperror.DisplayMessage(err)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			log.Error("Request failed", err, zap.String("path", c.Request.URL.Path))
			message = "Something went wrong. Please try again."
		} else {
			log.Warn("Request rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
		}

		if c.Writer.Written() {
			return
		}
		c.HTML(status, pageError, errorPage{
			BasePage: newBasePage(c, "Error"),
			Status:   status,
			Message:  message,
		})
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
