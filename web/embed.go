// Package web embeds the portal's page templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static templates
var content embed.FS

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		log.Fatalf("failed to open embedded %s: %v", dir, err)
	}
	return f
}

// StaticFS serves style.css and app.js.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS holds layout.html and one template per page.
func TemplatesFS() fs.FS { return sub("templates") }
