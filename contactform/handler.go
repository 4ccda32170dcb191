package contactform

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lemmi/sitekit"
	"github.com/lemmi/sitekit/backend"
)

// RequestURL reconstructs the URL the client asked for.
func RequestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return &url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   r.URL.Path,
	}
}

// Handler configures the contact forms of HTML pages read from fs for the
// requesting origin. Everything else, including missing pages, goes to
// next.
func Handler(next http.Handler, fs backend.Backend, c *Configurator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := sitekit.IndexPath(r.URL.Path)
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || !strings.HasSuffix(name, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		page, err := backend.ReadFile(fs, name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		buf := bytes.Buffer{}
		if _, err := c.Configure(r.Context(), bytes.NewReader(page), &buf, RequestURL(r)); err != nil {
			if c.Log != nil {
				c.Log.Print(err)
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(buf.Bytes()))
	})
}
