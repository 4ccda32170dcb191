package sitekit

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"
	"github.com/raymondbutcher/tidyhtml"
)

// Placeholder is replaced by the rendered news in the template.
const Placeholder = "{{NEWS_CONTENT}}"

var ErrTemplateNotFound = errors.New("template not found")

// Builder renders the posts listed in a manifest into one page.
// All paths but Output are slash separated and relative to Source.
type Builder struct {
	Source      backend.Backend
	NewsDir     string
	Manifest    string
	Template    string
	Output      string
	Placeholder string
	Sanitize    bool
	Tidy        bool
	Log         *log.Logger
}

// Result describes a finished build.
type Result struct {
	Output string
	Items  Items
}

func (b *Builder) logf(format string, v ...interface{}) {
	l := b.Log
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	l.Output(2, fmt.Sprintf(format, v...))
}

// Releases returns the file names listed in the manifest. A missing or
// malformed manifest is logged and yields no releases.
func (b *Builder) Releases() []string {
	m, err := LoadManifest(b.Source, b.Manifest)
	if err != nil {
		if backend.IsNotExist(err) {
			b.logf("manifest not found: %q", b.Manifest)
			b.logf(`create it with the content: { "releases": ["2026-02-15-beispiel.md"] }`)
		} else {
			b.logf("%v", err)
		}
		return nil
	}
	return m.Releases
}

func (b *Builder) loadItem(name string) (Item, error) {
	var r ContentRenderer = articleRenderer{
		fs:       b.Source,
		md_path:  path.Join(b.NewsDir, name),
		sanitize: b.Sanitize,
	}
	html, err := r.Render()
	if err != nil {
		return Item{}, err
	}
	return NewItem(name, html), nil
}

// Items loads every released post that exists and sorts them newest
// first. Missing and broken posts are logged and left out.
func (b *Builder) Items() Items {
	releases := b.Releases()
	b.logf("manifest lists %d files", len(releases))

	var items Items
	for _, name := range releases {
		ok, err := backend.Exists(b.Source, path.Join(b.NewsDir, name))
		if err == nil && !ok {
			b.logf("listed in manifest but not found: %s", name)
			continue
		}
		item, err := b.loadItem(name)
		if err != nil {
			b.logf("error in %s: %v", name, err)
			continue
		}
		items = append(items, item)
		b.logf("loaded: %s", name)
	}

	items.Sort()
	return items
}

const emptyState = `
<div style="text-align: center; padding: 60px 20px;">
    <div style="font-size: 3em; margin-bottom: 20px;">📰</div>
    <h2 style="color: #666; margin-bottom: 15px;">Noch keine News veröffentlicht</h2>
    <p style="color: #999; margin-bottom: 30px;">
        Füge Markdown-Dateien zu <code>releases.json</code> hinzu, um News zu veröffentlichen.
    </p>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; max-width: 500px; margin: 0 auto; text-align: left;">
        <strong style="color: #333;">So geht's:</strong>
        <ol style="color: #666; margin: 10px 0 0 20px; line-height: 1.8;">
            <li>Markdown-Datei erstellen: <code>YYYY-MM-DD-titel.md</code></li>
            <li>Dateinamen zu <code>releases.json</code> hinzufügen</li>
            <li>Committen und pushen</li>
        </ol>
    </div>
</div>
`

// RenderItems renders one news card per item, or the empty state block.
func RenderItems(items Items) []byte {
	if len(items) == 0 {
		return []byte(emptyState)
	}

	buf := bytes.Buffer{}
	for _, item := range items {
		buf.WriteString("<article class=\"news-card\">\n")
		buf.WriteString("  <div class=\"news-card-content\">\n")
		if item.Dated() {
			fmt.Fprintf(&buf, "    <div class=\"news-date\">%s</div>\n", FormatDate(item.Date))
		}
		buf.WriteString("    <div>\n")
		buf.Write(item.html)
		buf.WriteString("    </div>\n")
		buf.WriteString("  </div>\n")
		buf.WriteString("</article>\n")
	}
	return buf.Bytes()
}

func (b *Builder) placeholder() string {
	if b.Placeholder == "" {
		return Placeholder
	}
	return b.Placeholder
}

// Build renders the page and writes it to Output. A missing template
// is the only fatal condition; nothing is written in that case.
func (b *Builder) Build() (Result, error) {
	res := Result{Output: b.Output}

	tmpl, err := backend.ReadFile(b.Source, b.Template)
	if err != nil {
		if backend.IsNotExist(err) {
			return res, errors.Wrapf(ErrTemplateNotFound, "%q", b.Template)
		}
		return res, errors.Wrapf(err, "Cannot read template: %q", b.Template)
	}

	if c, ok := b.Source.(backend.CIDer); ok {
		b.logf("reading commit %s", c.CID())
	}
	res.Items = b.Items()
	b.logf("%d news articles will be published", len(res.Items))

	if !bytes.Contains(tmpl, []byte(b.placeholder())) {
		b.logf("template %q lacks the placeholder %s", b.Template, b.placeholder())
	}
	out := bytes.Replace(tmpl, []byte(b.placeholder()), RenderItems(res.Items), 1)

	if b.Tidy {
		tbuf := bytes.Buffer{}
		if err := tidyhtml.Copy(&tbuf, bytes.NewReader(out)); err != nil {
			return res, errors.Wrapf(err, "tidyhtml failed: %q", b.Output)
		}
		out = tbuf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(b.Output), 0755); err != nil {
		return res, errors.Wrapf(err, "Cannot create directory for: %q", b.Output)
	}
	if err := ioutil.WriteFile(b.Output, out, 0644); err != nil {
		return res, errors.Wrapf(err, "Cannot write output: %q", b.Output)
	}

	b.logf("static page written: %s", b.Output)
	b.logf("%d articles published", len(res.Items))
	for i, item := range res.Items {
		b.logf("  %d. %s - %s", i+1, item.DateLabel(), item.Filename)
	}
	return res, nil
}
