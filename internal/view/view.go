// Package view renders the gallery page from embedded HTML templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/capture"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
)

//go:embed templates/*.html
var templatesFS embed.FS

// JustNow is shown for memories the server has not dated yet.
const JustNow = "Just now"

// PageData is everything the full page needs.
type PageData struct {
	State gallery.State
	Form  capture.Snapshot
	// FormOpen expands the add form, e.g. after a failed submit.
	FormOpen bool
	// StreamURL and GalleryURL enable live refresh when set.
	StreamURL  string
	GalleryURL string
}

type Renderer struct {
	t *template.Template
}

func New() (*Renderer, error) {
	t, err := template.New("view").Funcs(template.FuncMap{
		"formatDate": FormatDate,
		"mode":       Mode,
		"previewURL": previewURL,
		"submitting": func(s capture.State) bool { return s == capture.Submitting },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

func (r *Renderer) RenderPage(w io.Writer, d PageData) error {
	return r.t.ExecuteTemplate(w, "page", d)
}

// RenderGallery renders the gallery part of the page for s: the loading
// notice, the load error, the empty state or the card grid.
func (r *Renderer) RenderGallery(w io.Writer, s gallery.State) error {
	return r.t.ExecuteTemplate(w, "fragment", s)
}

// Page modes. The live refresh script reloads the page when the mode of a
// pushed snapshot differs from the one the page was rendered in.
const (
	ModeLoading = "loading"
	ModeError   = "error"
	ModeReady   = "ready"
)

func Mode(s gallery.State) string {
	switch {
	case s.Loading:
		return ModeLoading
	case s.LoadError != "":
		return ModeError
	default:
		return ModeReady
	}
}

// FormatDate renders t as "January 2, 2006", or JustNow for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return JustNow
	}
	return t.Format("January 2, 2006")
}

// previewURL only lets inline image data through to the img tag.
func previewURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}
