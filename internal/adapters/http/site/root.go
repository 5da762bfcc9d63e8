// Package site serves the embedded dashboard status page.
package site

import (
	"context"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Register attaches the embedded status page routes to mux.
//
//	GET /          -> index.html
//	GET /assets/*  -> embedded static assets
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

// RootHandler serves the status page and its assets. Any other path under
// the catch-all root route is a 404.
type RootHandler struct {
	files http.Handler
	fsys  fs.FS
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	sub := subFS()
	return &RootHandler{
		files: http.FileServer(http.FS(sub)),
		fsys:  sub,
	}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleRoot(w, r)
}

// HandleRoot handles GET / and asset requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	p := path.Clean(r.URL.Path)
	if p != "/" && !strings.HasPrefix(p, "/assets/") {
		http.NotFound(w, r)
		return
	}
	if p != "/" {
		info, err := fs.Stat(h.fsys, strings.TrimPrefix(p, "/"))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
	}
	h.files.ServeHTTP(w, r)
}
