// Package web carries the HTML templates and static assets of the dashboard.
package web

import "embed"

var (
	// Templates holds layouts, partials and pages.
	//go:embed templates/**/*.html
	Templates embed.FS

	// Static holds the stylesheet served under /static.
	//go:embed static/**/*
	Static embed.FS
)
