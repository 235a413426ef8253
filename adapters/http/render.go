package http

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin/render"

	"github.com/encorestage/encore/pkg/htmlsanitize"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageBoard       = "board"
	pageProfile     = "profile"
	pageProfileGate = "profile_gate"
	pageInstitution = "institution"
	pageError       = "error"
)

var templateFuncs = template.FuncMap{
	"join":    strings.Join,
	"display": htmlsanitize.PrepareForDisplay,
}

// pageRenderer pairs every page with the shared layout. Each page defines a
// "content" block, so they are parsed into separate template sets.
type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	r := &pageRenderer{pages: map[string]*template.Template{}}
	for _, name := range []string{pageBoard, pageProfile, pageProfileGate, pageInstitution, pageError} {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *pageRenderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.pages[name], Name: "layout", Data: data}
}
