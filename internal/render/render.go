// Package render writes the storyboard card and the host page as HTML.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/storyboard/internal/composer"
	"github.com/lehigh-university-libraries/storyboard/internal/layout"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"gridClasses": layout.Classes,
	"imageSrc":    imageSrc,
	"filler":      filler,
}).ParseFS(templateFS, "templates/*.html"))

// PageData is the input of the host page.
type PageData struct {
	SessionID string
	MaxImages int
	Message   string
	Hovering  bool
	Batch     composer.Batch
}

// Storyboard writes the card for batch. An empty batch writes nothing but
// its failures, if any.
func Storyboard(w io.Writer, batch composer.Batch) error {
	if err := templates.ExecuteTemplate(w, "storyboard", batch); err != nil {
		return fmt.Errorf("failed to render storyboard: %w", err)
	}
	return nil
}

// Page writes the full host page.
func Page(w io.Writer, data PageData) error {
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// imageSrc lets image data URIs through html/template's URL filter; anything
// else is blanked.
func imageSrc(src string) template.URL {
	if strings.HasPrefix(src, "data:image/") {
		return template.URL(src)
	}
	return ""
}

func filler(n int) []struct{} {
	if n <= 0 {
		return nil
	}
	return make([]struct{}, n)
}
