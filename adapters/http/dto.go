package http

import (
	"github.com/gin-gonic/gin"

	"github.com/encorestage/encore/internal/application/usecase/board"
	"github.com/encorestage/encore/internal/application/usecase/dashboard"
	"github.com/encorestage/encore/internal/application/usecase/editor"
	"github.com/encorestage/encore/internal/domain/profile"
)

type BasePage struct {
	Title    string
	Nav      []NavLink
	SignedIn bool
}

func newBasePage(c *gin.Context, title string) BasePage {
	return BasePage{
		Title:    title,
		Nav:      Active(c.Request.URL.Path),
		SignedIn: subjectOf(c) != "",
	}
}

type boardPage struct {
	BasePage
	ViewID string
	Board  *board.BoardState
}

type profileGatePage struct {
	BasePage
	Message   string
	SignedOut bool
}

type profilePage struct {
	BasePage
	ViewID   string
	Editor   *editor.EditorState
	Fields   []fieldInput
	MaxMedia int
}

type fieldInput struct {
	Name      string
	Label     string
	Value     string
	Multiline bool
}

func profileFields(p profile.ArtistProfile) []fieldInput {
	return []fieldInput{
		{Name: string(profile.FieldDisplayName), Label: "Display name", Value: p.DisplayName},
		{Name: string(profile.FieldBio), Label: "Bio", Value: p.Bio, Multiline: true},
		{Name: string(profile.FieldLocation), Label: "Location", Value: p.Location},
		{Name: string(profile.FieldVoiceType), Label: "Voice type", Value: p.VoiceType},
		{Name: string(profile.FieldArtistType), Label: "Artist type", Value: p.ArtistType},
	}
}

type institutionPage struct {
	BasePage
	ViewID    string
	Dashboard *dashboard.DashboardState
}

type errorPage struct {
	BasePage
	Status  int
	Message string
}
