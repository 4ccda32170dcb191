package sitekit

import (
	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"

	bm "github.com/microcosm-cc/bluemonday"
)

type ContentRenderer interface {
	Render() ([]byte, error)
}

type articleRenderer struct {
	fs       backend.Backend
	md_path  string
	sanitize bool
}

func (a articleRenderer) Render() ([]byte, error) {
	b, err := backend.ReadFile(a.fs, a.md_path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read markdown file: %q", a.md_path)
	}
	html := Markdown(b)
	if a.sanitize {
		html = bm.UGCPolicy().SanitizeBytes(html)
	}
	return html, nil
}
