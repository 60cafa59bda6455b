// Package web carries the embedded UI assets for the dompet server.
package web

import "embed"

// TemplatesFS holds the dashboard and auth page templates.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and any other static assets.
//go:embed static/*
var StaticFS embed.FS
