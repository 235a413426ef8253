package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/encorestage/encore/adapters/fixture"
	"github.com/encorestage/encore/adapters/persistence"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/application/usecase/access"
	"github.com/encorestage/encore/internal/application/usecase/board"
	"github.com/encorestage/encore/internal/application/usecase/dashboard"
	"github.com/encorestage/encore/internal/application/usecase/editor"
	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/internal/domain/user"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/auth"
	"github.com/encorestage/encore/pkg/logger"
)

type countingOpportunities struct {
	mu    sync.Mutex
	rows  []record.Row
	calls int
}

func (r *countingOpportunities) List(context.Context, opportunity.Query) ([]record.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.rows, nil
}

func (r *countingOpportunities) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type mapRoles struct {
	mu    sync.Mutex
	roles map[string]user.Role
	calls int
}

func (r *mapRoles) FindRole(_ context.Context, userID string) (user.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if role, ok := r.roles[userID]; ok {
		return role, nil
	}
	return user.RoleBasic, nil
}

type memProfiles struct {
	mu   sync.Mutex
	rows map[string]record.Row
}

func (p *memProfiles) GetByOwner(_ context.Context, ownerID string) (record.Row, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.rows[ownerID]
	if !ok {
		return nil, apperror.NewNotFound("profile", ownerID)
	}
	return row, nil
}

func (p *memProfiles) Upsert(_ context.Context, row record.Row) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[row["owner_id"].(string)] = row
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (s *memStorage) Upload(_ context.Context, bucket, path string, body io.Reader, _ service.UploadOptions) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = true
	return nil
}

func (s *memStorage) PublicURL(_ context.Context, bucket, path string) (string, error) {
	return "https://cdn.test/" + bucket + "/" + path, nil
}

type HandlersTestSuite struct {
	suite.Suite
	router        *gin.Engine
	jwtSvc        *auth.JWTService
	opportunities *countingOpportunities
	roles         *mapRoles
	profiles      *memProfiles
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	s.jwtSvc = auth.NewJWTService("test-secret", time.Hour, "encore")
	s.opportunities = &countingOpportunities{rows: []record.Row{{
		"id": "op_9", "title": "Gala Concert", "type": "gig", "location": "Rome",
		"role_tags": []any{"Baritone"}, "level": "professional",
		"deadline": "2025-11-01", "pay_range": "€500",
	}}}
	s.roles = &mapRoles{roles: map[string]user.Role{"u-artist": user.RoleArtist, "u-basic": user.RoleBasic}}
	s.profiles = &memProfiles{rows: map[string]record.Row{}}

	views := persistence.NewMemoryViewStore(time.Hour, nil)
	ids := service.UUIDGenerator{}
	institutions, err := fixture.NewInstitutionSource("", log)
	s.Require().NoError(err)

	boardUC := board.NewBoardUseCase(s.opportunities, views, ids, log)
	feedUC := board.NewFeedUseCase(s.opportunities, "http://encore.test", log)
	accessUC := access.NewAccessUseCase(s.roles, log)
	editorUC := editor.NewEditorUseCase(s.profiles, nil, &memStorage{objects: map[string]bool{}}, nil, views, ids,
		time.Now, editor.Options{HydrateOnMount: true, MaxMediaPerBatch: 6}, log)
	dashboardUC := dashboard.NewDashboardUseCase(institutions, views, ids, log)

	router, err := NewRouter(Handlers{
		Board:       NewBoardHandler(boardUC, log),
		RSS:         NewRSSHandler(feedUC, log),
		Profile:     NewProfileHandler(accessUC, editorUC, 6, log),
		Institution: NewInstitutionHandler(dashboardUC, log),
		Session:     NewSessionHandler(s.jwtSvc, "access_token", false, log),
	}, s.jwtSvc, "access_token", log)
	s.Require().NoError(err)
	s.router = router
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) do(req *http.Request, subject string) *httptest.ResponseRecorder {
	if subject != "" {
		token, err := s.jwtSvc.GenerateToken(subject, subject+"@example.com")
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlersTestSuite) get(path, subject string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), subject)
}

func (s *HandlersTestSuite) post(path, subject string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, subject)
}

func (s *HandlersTestSuite) upload(path, subject, field string, names ...string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		s.Require().NoError(err)
		_, err = part.Write([]byte("content of " + name))
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req, subject)
}

func (s *HandlersTestSuite) viewID(body, pattern string) string {
	m := regexp.MustCompile(pattern).FindStringSubmatch(body)
	s.Require().Len(m, 2, "view id not found with %s", pattern)
	return m[1]
}

func (s *HandlersTestSuite) Test_SignedOutProfileShowsPrompt() {
	rr := s.get("/profile", "")

	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Contains(rr.Body.String(), "Please sign in to view your profile.")
	s.Equal(0, s.roles.calls)
}

func (s *HandlersTestSuite) Test_BasicRoleIsDenied() {
	rr := s.get("/profile", "u-basic")

	s.Equal(http.StatusForbidden, rr.Code)
	s.Contains(rr.Body.String(), "have access to the artist profile editor.")
	s.NotContains(rr.Body.String(), "Save profile")
}

func (s *HandlersTestSuite) Test_InvalidTokenCountsAsSignedOut() {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := s.do(req, "")

	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(0, s.roles.calls)
}

func (s *HandlersTestSuite) Test_ApplyChangesLabelWithoutRequery() {
	rr := s.get("/", "")
	s.Require().Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	s.Contains(body, "Gala Concert")
	s.Contains(body, "Baritone")
	s.Contains(body, ">Apply</button>")
	s.Contains(body, `class="active" aria-current="page">Opportunities`)

	viewID := s.viewID(body, `/board/([0-9a-f-]+)/apply/op_9`)

	rr = s.post("/board/"+viewID+"/apply/op_9", "", nil)
	s.Require().Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/?view="+viewID, rr.Header().Get("Location"))

	rr = s.get("/?view="+viewID, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), ">Applied</button>")
	s.Equal(1, s.opportunities.count())
}

func (s *HandlersTestSuite) Test_ClosedBoardRemounts() {
	rr := s.get("/", "")
	viewID := s.viewID(rr.Body.String(), `/board/([0-9a-f-]+)/apply/op_9`)

	rr = s.post("/board/"+viewID+"/close", "", nil)
	s.Require().Equal(http.StatusSeeOther, rr.Code)

	rr = s.get("/?view="+viewID, "")
	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/", rr.Header().Get("Location"))
}

func (s *HandlersTestSuite) Test_AvatarUploadSetsURL() {
	rr := s.get("/profile", "u-artist")
	s.Require().Equal(http.StatusOK, rr.Code)
	viewID := s.viewID(rr.Body.String(), `/profile/([0-9a-f-]+)/avatar`)

	rr = s.upload("/profile/"+viewID+"/avatar", "u-artist", "avatar", "photo.png")
	s.Require().Equal(http.StatusSeeOther, rr.Code)

	rr = s.get("/profile?view="+viewID, "u-artist")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Regexp(`src="https://cdn.test/avatars/u-artist/avatar/\d+-[0-9a-f]+\.png"`, rr.Body.String())
}

func (s *HandlersTestSuite) Test_MediaBatchIsCapped() {
	rr := s.get("/profile", "u-artist")
	viewID := s.viewID(rr.Body.String(), `/profile/([0-9a-f-]+)/media`)

	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("clip%d.mp3", i)
	}
	rr = s.upload("/profile/"+viewID+"/media", "u-artist", "media", names...)
	s.Require().Equal(http.StatusSeeOther, rr.Code)

	rr = s.get("/profile?view="+viewID, "u-artist")
	s.Equal(6, strings.Count(rr.Body.String(), "<audio "))
	s.NotContains(rr.Body.String(), "clip6.mp3")
}

func (s *HandlersTestSuite) Test_EditAndSave() {
	rr := s.get("/profile", "u-artist")
	viewID := s.viewID(rr.Body.String(), `/profile/([0-9a-f-]+)/fields`)
	base := "/profile/" + viewID

	rr = s.post(base+"/fields", "u-artist", url.Values{"display_name": {"Giulia Rossi"}, "bio": {"Lyric soprano.\nMilan."}})
	s.Require().Equal(http.StatusSeeOther, rr.Code)
	s.post(base+"/repertoire", "u-artist", nil)
	s.post(base+"/repertoire/1", "u-artist", url.Values{"composer": {"Verdi"}})
	s.post(base+"/schools", "u-artist", url.Values{"school": {"  Conservatorio di Milano "}})
	rr = s.post(base+"/save", "u-artist", nil)
	s.Require().Equal(http.StatusSeeOther, rr.Code)

	rr = s.get("/profile?view="+viewID, "u-artist")
	body := rr.Body.String()
	s.Contains(body, "Profile saved.")
	s.Contains(body, `value="Giulia Rossi"`)
	s.Contains(body, "<p>Lyric soprano.<br>Milan.</p>")
	s.Contains(body, "Conservatorio di Milano")

	saved := s.profiles.rows["u-artist"]
	s.Require().NotNil(saved)
	s.Equal("Giulia Rossi", saved["display_name"])
	s.Equal([]any{"Conservatorio di Milano"}, saved["schools"])
}

func (s *HandlersTestSuite) Test_EditorViewBelongsToOwner() {
	rr := s.get("/profile", "u-artist")
	viewID := s.viewID(rr.Body.String(), `/profile/([0-9a-f-]+)/save`)

	s.roles.roles["u-other"] = user.RoleArtist
	rr = s.post("/profile/"+viewID+"/save", "u-other", nil)
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.get("/profile?view="+viewID, "u-other")
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *HandlersTestSuite) Test_EditorActionsRecheckArtistRole() {
	rr := s.get("/profile", "u-artist")
	s.Require().Equal(http.StatusOK, rr.Code)
	viewID := s.viewID(rr.Body.String(), `/profile/([0-9a-f-]+)/save`)

	s.roles.roles["u-artist"] = user.RoleBasic
	rr = s.post("/profile/"+viewID+"/save", "u-artist", nil)
	s.Equal(http.StatusForbidden, rr.Code)
	s.Empty(s.profiles.rows)

	rr = s.post("/profile/"+viewID+"/save", "", nil)
	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/profile", rr.Header().Get("Location"))
	s.Empty(s.profiles.rows)
}

func (s *HandlersTestSuite) Test_InstitutionDashboard() {
	rr := s.get("/institution", "")
	s.Require().Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	s.Contains(body, "Chorus auditions")
	s.Contains(body, "Applicants (1)")
	s.NotContains(body, "Marco")

	viewID := s.viewID(body, `/institution/([0-9a-f-]+)/postings/org_op_1/applicants`)
	rr = s.post("/institution/"+viewID+"/postings/org_op_1/applicants", "", nil)
	s.Require().Equal(http.StatusSeeOther, rr.Code)

	rr = s.get("/institution?view="+viewID, "")
	s.Contains(rr.Body.String(), "Marco")
	s.Contains(rr.Body.String(), "Tenor")
}

func (s *HandlersTestSuite) Test_RSSFeed() {
	rr := s.get("/opportunities.rss", "")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Header().Get("Content-Type"), "application/rss+xml")
	s.Contains(rr.Body.String(), "<title>Gala Concert</title>")
}

func (s *HandlersTestSuite) Test_SessionCookie() {
	token, err := s.jwtSvc.GenerateToken("u-artist", "a@example.com")
	s.Require().NoError(err)

	rr := s.post("/session", "", url.Values{"access_token": {token}})
	s.Require().Equal(http.StatusSeeOther, rr.Code)
	cookies := rr.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal("access_token", cookies[0].Name)
	s.True(cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookies[0])
	rr = s.do(req, "")
	s.Equal(http.StatusOK, rr.Code)

	rr = s.post("/session", "", url.Values{"access_token": {"garbage"}})
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func TestActive_MarksExactPath(t *testing.T) {
	links := Active("/profile")
	active := 0
	for _, l := range links {
		if l.Active {
			active++
			if l.Href != "/profile" {
				t.Errorf("unexpected active link %s", l.Href)
			}
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active link, got %d", active)
	}
	for _, l := range Active("/profile/extra") {
		if l.Active {
			t.Errorf("no link should be active for a sub path, got %s", l.Href)
		}
	}
}
