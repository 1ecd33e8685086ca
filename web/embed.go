// Package web bundles the dashboard templates and stylesheet into the binary.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds the layout, partial and page templates parsed by the view
// engine.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// TemplatePatterns lists the globs parsed into one template set. Layouts come
// first so pages can override their blocks.
var TemplatePatterns = []string{
	"templates/layouts/*.html",
	"templates/partials/*.html",
	"templates/pages/*.html",
}

// StaticFS returns the assets rooted so /static/css/app.css maps to css/app.css.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}
