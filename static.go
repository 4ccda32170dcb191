package sitekit

import (
	"net/http"
	"strings"

	"github.com/lemmi/sitekit/backend"
)

// The StaticHandler behaves like http.ServeContent without directoy listings.
// Directories are served by their index.html.
// It also implements the http.Filesystem interface.
type StaticHandler struct {
	fs backend.Backend
}

// Serve the file requestet by r. Error 404 on directories without an index.
func (sh StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := sh.Open(IndexPath(r.URL.Path))
	if err != nil {
		http.Error(w, r.URL.Path, http.StatusNotFound)
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		http.Error(w, r.URL.Path, http.StatusInternalServerError)
		return
	}
	if stat.IsDir() {
		http.Error(w, r.URL.Path, http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), f)
}

// Implement the http.Filesystem interface.
func (sh StaticHandler) Open(name string) (http.File, error) {
	return sh.fs.Open(backend.Clean(name))
}

// Serves all files from fs.
func NewStaticHandler(fs backend.Backend) StaticHandler {
	return StaticHandler{fs: fs}
}

// IndexPath maps a request path to the file that answers it.
func IndexPath(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return p + "index.html"
	}
	return p
}
