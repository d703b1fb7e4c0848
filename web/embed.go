// Package web holds the admin UI templates, compiled into the binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templates embed.FS

// Engine returns the html view engine over the embedded templates. Pages render inside
// the "layout" template via {{embed}}.
func Engine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("fieldError", func(errs map[string]string, field string) string {
		return errs[field]
	})
	return engine
}
