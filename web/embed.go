// Package web embeds the HTML templates and static assets of the habit-garden UI.
package web

import "embed"

// TemplatesFS contains the layouts, partials and pages.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the stylesheet.
//
//go:embed all:static
var StaticFS embed.FS
