package sitekit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"
)

var umlauts = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss")

func delspace(r rune) rune {
	if unicode.In(r, unicode.Latin, unicode.Digit) {
		return r
	}
	return '-'
}

// Slug turns a title into the file name part after the date.
func Slug(title string) string {
	s := strings.Map(delspace, umlauts.Replace(strings.ToLower(title)))
	for strings.Contains(s, "--") {
		s = strings.Replace(s, "--", "-", -1)
	}
	return strings.Trim(s, "-")
}

// PostName is the file name of a post titled title published on date.
func PostName(date time.Time, title string) string {
	return date.Format("2006-01-02-") + Slug(title) + ".md"
}

// Post is a post to be scaffolded.
type Post struct {
	Title string
	Date  time.Time
}

func (p Post) Name() string {
	return PostName(p.Date, p.Title)
}

func (p Post) Body() string {
	return fmt.Sprintf("# %s\n\n", p.Title)
}

// Create writes the post skeleton into dir and lists it in the manifest at
// manifestPath. Existing posts are not overwritten. A manifest that cannot
// be read leaves dir untouched.
func (p Post) Create(dir, manifestPath string) error {
	name := p.Name()

	m, err := LoadManifest(backend.Dir(filepath.Dir(manifestPath)), filepath.Base(manifestPath))
	if err != nil && !backend.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "Cannot create post: %q", name)
	}
	if _, err := f.WriteString(p.Body()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return errors.Wrapf(err, "Cannot write post: %q", name)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}

	if m.Contains(name) {
		return nil
	}
	m.Releases = append(m.Releases, name)
	if err := m.Save(manifestPath); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
