// Package views embeds the HTML templates served by the lead-form routes.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html
var files embed.FS

// Engine returns the fiber template engine backed by the embedded views.
func Engine() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}
