package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/encorestage/encore/pkg/auth"
	"github.com/encorestage/encore/pkg/logger"
)

type Handlers struct {
	Board       *BoardHandler
	RSS         *RSSHandler
	Profile     *ProfileHandler
	Institution *InstitutionHandler
	Session     *SessionHandler
}

// NewRouter wires every page and action onto a gin engine.
func NewRouter(h Handlers, jwtSvc *auth.JWTService, cookieName string, log logger.Logger) (*gin.Engine, error) {
	renderer, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.MaxMultipartMemory = 32 << 20
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(ErrorMiddleware(log))
	router.Use(SessionMiddleware(jwtSvc, cookieName, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/opportunities.rss", h.RSS.GenerateRSS)

	router.GET("/", h.Board.Show)
	boardRoutes := router.Group("/board/:view")
	{
		boardRoutes.POST("/apply/:id", h.Board.Apply)
		boardRoutes.POST("/close", h.Board.Close)
	}

	router.GET("/profile", h.Profile.Show)
	profileRoutes := router.Group("/profile/:view")
	{
		profileRoutes.POST("/fields", h.Profile.UpdateFields)
		profileRoutes.POST("/avatar", h.Profile.UploadAvatar)
		profileRoutes.POST("/media", h.Profile.UploadMedia)
		profileRoutes.POST("/repertoire", h.Profile.AddRepertoire)
		profileRoutes.POST("/repertoire/:localID", h.Profile.UpdateRepertoire)
		profileRoutes.POST("/repertoire/:localID/remove", h.Profile.RemoveRepertoire)
		profileRoutes.POST("/schools", h.Profile.AddSchool)
		profileRoutes.POST("/schools/:index/remove", h.Profile.RemoveSchool)
		profileRoutes.POST("/career", h.Profile.AddCareer)
		profileRoutes.POST("/career/:id", h.Profile.UpdateCareer)
		profileRoutes.POST("/career/:id/media", h.Profile.AddCareerMedia)
		profileRoutes.POST("/save", h.Profile.Save)
		profileRoutes.POST("/close", h.Profile.Close)
	}

	router.GET("/institution", h.Institution.Show)
	institutionRoutes := router.Group("/institution/:view")
	{
		institutionRoutes.POST("/postings/:id/applicants", h.Institution.ToggleApplicants)
		institutionRoutes.POST("/close", h.Institution.Close)
	}

	sessionRoutes := router.Group("/session")
	{
		sessionRoutes.POST("", h.Session.SignIn)
		sessionRoutes.POST("/logout", h.Session.SignOut)
	}

	return router, nil
}
