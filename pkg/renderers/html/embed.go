package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/blocks/*.tmpl templates/*.css
var embeddedTemplates embed.FS

// StylesheetName is inlined into every rendered page.
const StylesheetName = "templates/document.css"

// TemplatesFS exposes the embedded template bundle.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
