// Package views holds the console's HTML templates and the data they render.
//
// Templates are html/template files embedded in the binary and exposed as
// templ components, so handlers render pages and SSE fragments the same way.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"regexp"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var files embed.FS

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var funcs = template.FuncMap{
	// chipStyle returns the inline style of a tag chip, or nothing for an
	// unusable color value
	"chipStyle": func(color string) template.CSS {
		if !colorPattern.MatchString(color) {
			return ""
		}
		return template.CSS("--chip: " + color)
	},
	// cloudSize buckets a tag cloud weight into a font size class
	"cloudSize": func(weight int) int {
		switch {
		case weight >= 6:
			return 4
		case weight >= 4:
			return 3
		case weight >= 2:
			return 2
		default:
			return 1
		}
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f", f)
	},
}

var templates = template.Must(template.New("views").Funcs(funcs).ParseFS(files, "templates/*.html"))

// Component returns the named template bound to data.
// It panics on an unknown name, which is a programming error.
func Component(name string, data any) templ.Component {
	t := templates.Lookup(name)
	if t == nil {
		panic(fmt.Sprintf("views: unknown template %q", name))
	}
	return templ.FromGoHTML(t, data)
}

// Template names.
const (
	TmplHome        = "home"
	TmplDashboard   = "dashboard"
	TmplClusters    = "clusters"
	TmplClusterView = "cluster-view"
	TmplClusterForm = "cluster-form"
	TmplAreas       = "areas"
	TmplAreaView    = "area-view"
	TmplAreaForm    = "area-form"
	TmplTags        = "tags"
	TmplTagView     = "tag-view"
	TmplTagForm     = "tag-form"
	TmplGraph       = "graph"
	TmplToasts      = "toasts"
)
