// Package dashboard provides the embedded web page for Starfield.
//
// This package uses Go's embed directive to include the page HTML, CSS and
// JavaScript at compile time, so the server ships as a single binary.
//
// The embedded page is served by the server package at "/" and "/login".
package dashboard

import "embed"

// Assets is an embedded filesystem containing the star map page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Star map page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
