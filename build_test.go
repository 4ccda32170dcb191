package sitekit

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = "<html><body><main>{{NEWS_CONTENT}}</main></body></html>\n"

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func newTestBuilder(t *testing.T, files map[string]string) (*Builder, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	logbuf := &bytes.Buffer{}
	return &Builder{
		Source:   backend.Dir(root),
		NewsDir:  "de/news/news",
		Manifest: "de/news/news/releases.json",
		Template: "de/news/template.html",
		Output:   filepath.Join(root, "de", "news", "index.html"),
		Log:      log.New(logbuf, "", 0),
	}, logbuf
}

func readOutput(t *testing.T, b *Builder) string {
	t.Helper()
	out, err := os.ReadFile(b.Output)
	require.NoError(t, err)
	return string(out)
}

func TestBuildExample(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html":               testTemplate,
		"de/news/news/releases.json":          `{"releases": ["2026-02-15-example.md"]}`,
		"de/news/news/2026-02-15-example.md":  "# Neue Version\n\nJetzt verfügbar.\n",
		"de/news/news/2026-03-01-unlisted.md": "# Geheim\n",
	})

	res, err := b.Build()
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	out := readOutput(t, b)
	date := strings.Index(out, `<div class="news-date">15. Februar 2026</div>`)
	body := strings.Index(out, "Neue Version</h1>")
	require.NotEqual(t, -1, date)
	require.NotEqual(t, -1, body)
	assert.Less(t, date, body)
	assert.NotContains(t, out, "Geheim")
	assert.NotContains(t, out, Placeholder)
	assert.True(t, strings.HasPrefix(out, "<html><body><main><article class=\"news-card\">"))
	assert.True(t, strings.HasSuffix(out, "</article>\n</main></body></html>\n"))
}

func TestBuildOrdering(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html":      testTemplate,
		"de/news/news/releases.json": `{"releases": [
			"ohne-datum.md",
			"2024-05-01-alt.md",
			"2026-01-10-neu.md",
			"2025-07-20-mitte.md"
		]}`,
		"de/news/news/ohne-datum.md":       "Ohne Datum\n",
		"de/news/news/2024-05-01-alt.md":   "Alt\n",
		"de/news/news/2026-01-10-neu.md":   "Neu\n",
		"de/news/news/2025-07-20-mitte.md": "Mitte\n",
	})

	res, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-01-10-neu.md",
		"2025-07-20-mitte.md",
		"2024-05-01-alt.md",
		"ohne-datum.md",
	}, filenames(res.Items))

	out := readOutput(t, b)
	neu := strings.Index(out, "<p>Neu</p>")
	mitte := strings.Index(out, "<p>Mitte</p>")
	alt := strings.Index(out, "<p>Alt</p>")
	ohne := strings.Index(out, "<p>Ohne Datum</p>")
	assert.True(t, neu < mitte && mitte < alt && alt < ohne, "%d %d %d %d", neu, mitte, alt, ohne)
	assert.Equal(t, 3, strings.Count(out, `class="news-date"`))
	assert.Equal(t, 4, strings.Count(out, `<article class="news-card">`))
}

func TestBuildKeepsPostHTML(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html":      testTemplate,
		"de/news/news/releases.json": `{"releases": ["2026-02-15-produkt.md"]}`,
		"de/news/news/2026-02-15-produkt.md": "Mehr zum [Produkt](https://www.vertama.com/produkt).\n\n" +
			"<div class=\"highlight\" style=\"color:red\">Wichtig</div>\n\n" +
			"<iframe src=\"https://www.youtube-nocookie.com/embed/abc\"></iframe>\n",
	})

	_, err := b.Build()
	require.NoError(t, err)
	out := readOutput(t, b)
	assert.Contains(t, out, `<a href="https://www.vertama.com/produkt">Produkt</a>`)
	assert.Contains(t, out, `<div class="highlight" style="color:red">Wichtig</div>`)
	assert.Contains(t, out, `<iframe src="https://www.youtube-nocookie.com/embed/abc"></iframe>`)
	assert.NotContains(t, out, "nofollow")

	b.Sanitize = true
	_, err = b.Build()
	require.NoError(t, err)
	out = readOutput(t, b)
	assert.Contains(t, out, `rel="nofollow"`)
	assert.NotContains(t, out, "<iframe")
}

func TestBuildMissingEntry(t *testing.T) {
	b, logbuf := newTestBuilder(t, map[string]string{
		"de/news/template.html":         testTemplate,
		"de/news/news/releases.json":    `{"releases": ["2026-02-01-gone.md", "2026-02-02-da.md"]}`,
		"de/news/news/2026-02-02-da.md": "Da\n",
	})

	res, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-02-da.md"}, filenames(res.Items))
	assert.Contains(t, logbuf.String(), "not found: 2026-02-01-gone.md")
	assert.Contains(t, logbuf.String(), "loaded: 2026-02-02-da.md")
	assert.Contains(t, logbuf.String(), "1. 2. Februar 2026 - 2026-02-02-da.md")

	out := readOutput(t, b)
	assert.Equal(t, 1, strings.Count(out, `<article class="news-card">`))
}

func TestBuildUnreadableEntry(t *testing.T) {
	b, logbuf := newTestBuilder(t, map[string]string{
		"de/news/template.html":            testTemplate,
		"de/news/news/releases.json":       `{"releases": ["verzeichnis.md"]}`,
		"de/news/news/verzeichnis.md/keep": "",
	})

	res, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Contains(t, logbuf.String(), "error in verzeichnis.md")
	assert.Contains(t, readOutput(t, b), "Noch keine News veröffentlicht")
}

func TestBuildEmptyState(t *testing.T) {
	tests := map[string]map[string]string{
		"missing manifest": {},
		"empty manifest": {
			"de/news/news/releases.json": `{"releases": []}`,
		},
		"invalid json": {
			"de/news/news/releases.json": `{"releases": [`,
		},
		"no releases field": {
			"de/news/news/releases.json": `{"posts": ["a.md"]}`,
		},
		"releases not an array": {
			"de/news/news/releases.json": `{"releases": "a.md"}`,
		},
		"all entries missing": {
			"de/news/news/releases.json": `{"releases": ["a.md", "b.md"]}`,
		},
	}
	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			files["de/news/template.html"] = testTemplate
			b, _ := newTestBuilder(t, files)

			res, err := b.Build()
			require.NoError(t, err)
			assert.Empty(t, res.Items)

			out := readOutput(t, b)
			assert.Contains(t, out, "Noch keine News veröffentlicht")
			assert.NotContains(t, out, "news-card")
		})
	}
}

func TestBuildMissingManifestHint(t *testing.T) {
	b, logbuf := newTestBuilder(t, map[string]string{
		"de/news/template.html": testTemplate,
	})
	_, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, logbuf.String(), `manifest not found: "de/news/news/releases.json"`)
	assert.Contains(t, logbuf.String(), `"releases"`)
}

func TestBuildIdempotent(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html":        testTemplate,
		"de/news/news/releases.json":   `{"releases": ["2026-02-15-a.md", "b.md", "2025-01-01-c.md"]}`,
		"de/news/news/2026-02-15-a.md": "# A\n",
		"de/news/news/b.md":            "# B\n",
		"de/news/news/2025-01-01-c.md": "# C\n",
	})

	_, err := b.Build()
	require.NoError(t, err)
	first := readOutput(t, b)

	_, err = b.Build()
	require.NoError(t, err)
	assert.Equal(t, first, readOutput(t, b))
}

func TestBuildMissingTemplate(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/news/releases.json":   `{"releases": ["2026-02-15-a.md"]}`,
		"de/news/news/2026-02-15-a.md": "# A\n",
	})

	_, err := b.Build()
	require.Error(t, err)
	assert.Equal(t, ErrTemplateNotFound, errors.Cause(err))

	_, statErr := os.Stat(b.Output)
	assert.True(t, os.IsNotExist(statErr), "no output must be written")
}

func TestBuildReplacesFirstPlaceholderOnly(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html": "{{NEWS_CONTENT}}|{{NEWS_CONTENT}}",
	})

	_, err := b.Build()
	require.NoError(t, err)
	out := readOutput(t, b)
	assert.Equal(t, 1, strings.Count(out, Placeholder))
	assert.True(t, strings.HasSuffix(out, "|"+Placeholder))
}

func TestBuildCustomPlaceholder(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html": "<main><!-- news --></main>",
	})
	b.Placeholder = "<!-- news -->"

	_, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, readOutput(t, b), "<main>\n<div style=")
}

func TestBuildTemplateWithoutPlaceholder(t *testing.T) {
	b, logbuf := newTestBuilder(t, map[string]string{
		"de/news/template.html": "<html></html>",
	})

	_, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", readOutput(t, b))
	assert.Contains(t, logbuf.String(), "lacks the placeholder {{NEWS_CONTENT}}")
}

func TestBuildTidy(t *testing.T) {
	b, _ := newTestBuilder(t, map[string]string{
		"de/news/template.html":              "<html><head><title>News</title></head><body><main>{{NEWS_CONTENT}}</main></body></html>",
		"de/news/news/releases.json":         `{"releases": ["2026-02-15-example.md"]}`,
		"de/news/news/2026-02-15-example.md": "# Neue Version\n",
	})
	b.Tidy = true

	_, err := b.Build()
	require.NoError(t, err)
	out := readOutput(t, b)
	assert.True(t, strings.HasPrefix(out, "<html>\n    <head>\n        <title>News</title>\n    </head>\n    <body>\n"), out)
	assert.Contains(t, out, "\n        <main>\n")
	assert.Contains(t, out, `<article class="news-card">`)
	assert.Contains(t, out, ">15. Februar 2026</div>")
	assert.Contains(t, out, ">Neue Version</h1>")
}

func TestBuildFromGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	b, logbuf := newTestBuilder(t, map[string]string{
		"de/news/template.html":              testTemplate,
		"de/news/news/releases.json":         `{"releases": ["2026-02-15-example.md", "2026-03-01-entwurf.md"]}`,
		"de/news/news/2026-02-15-example.md": "# Veröffentlicht\n",
	})
	root := filepath.Dir(filepath.Dir(filepath.Dir(b.Output)))
	for _, args := range [][]string{
		{"init", "-q"},
		{"symbolic-ref", "HEAD", "refs/heads/master"},
		{"add", "."},
		{"-c", "user.name=sitekit", "-c", "user.email=sitekit@example.org", "-c", "commit.gpgsign=false", "commit", "-q", "-m", "news"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	writeFiles(t, root, map[string]string{
		"de/news/news/2026-03-01-entwurf.md": "# Entwurf\n",
	})

	src, err := backend.Git(root, "master")
	require.NoError(t, err)
	b.Source = src

	res, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-15-example.md"}, filenames(res.Items))
	assert.Contains(t, logbuf.String(), "reading commit "+src.(backend.CIDer).CID())
	assert.Contains(t, logbuf.String(), "not found: 2026-03-01-entwurf.md")
	assert.NotContains(t, readOutput(t, b), "Entwurf")
}

func TestRenderItemsUndatedHasNoDateLine(t *testing.T) {
	out := string(RenderItems(Items{{Filename: "x.md", html: []byte("<p>x</p>\n")}}))
	assert.NotContains(t, out, "news-date")
	assert.Contains(t, out, "    <div>\n<p>x</p>\n    </div>\n")
}
