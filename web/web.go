// Package web embeds the HTML templates and static assets into the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates static
var files embed.FS

// Templates parses every page, partial and admin template. Pages are looked
// up by file name, e.g. "kos_detail.html".
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files,
		"templates/partials/*.html",
		"templates/*.html",
		"templates/admin/*.html",
	)
}

// Static serves /static from the embedded assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
