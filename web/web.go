// Package web embeds the browser shell of the calculator: a single page
// app, its service worker and the install manifest.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var content embed.FS

// Assets returns the embedded static files rooted at the site root
func Assets() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// static is embedded at build time
		panic(err)
	}
	return sub
}

// cache lifetimes per asset
var cacheControl = map[string]string{
	"/":              "public, max-age=3600",
	"/sw.js":         "no-cache",
	"/manifest.json": "public, max-age=86400",
	"/icon.svg":      "public, max-age=31536000",
}

// Handler serves the embedded assets with their cache headers
func Handler() http.Handler {
	files := http.FileServer(http.FS(Assets()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cc, ok := cacheControl[r.URL.Path]; ok {
			w.Header().Set("Cache-Control", cc)
		}
		if r.URL.Path == "/sw.js" {
			w.Header().Set("Service-Worker-Allowed", "/")
		}
		files.ServeHTTP(w, r)
	})
}

// Paths lists the routes Handler answers
func Paths() []string {
	return []string{"/", "/sw.js", "/manifest.json", "/icon.svg"}
}
