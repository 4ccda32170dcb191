package contactform

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"log"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

const (
	// MarkerClass marks the elements that get configured.
	MarkerClass = "vertama-contact-form"

	SuccessField = "redirectSuccess"
	ErrorField   = "redirectError"
)

// Redirects returns where the API sends the visitor after submitting a
// form on page: success.html next to the page, or the page itself with
// error=1.
func Redirects(page *url.URL) (success, failure string) {
	origin := page.Scheme + "://" + page.Host
	p := page.EscapedPath()
	if p == "" {
		p = "/"
	}
	dir := p[:strings.LastIndex(p, "/")+1]
	return origin + dir + "success.html", origin + p + "?error=1"
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// findInput returns the first input below n named name.
func findInput(n *html.Node, name string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "input" {
			if v, _ := attr(c, "name"); v == name {
				return c
			}
		}
		if found := findInput(c, name); found != nil {
			return found
		}
	}
	return nil
}

func forms(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && hasClass(n, MarkerClass) {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forms(c, fn)
	}
}

// Apply sets the action of every marked form below doc to endpoint and
// fills the redirect fields for page. It returns the number of forms.
func Apply(doc *html.Node, endpoint string, page *url.URL) int {
	success, failure := Redirects(page)
	n := 0
	forms(doc, func(form *html.Node) {
		n++
		setAttr(form, "action", endpoint)
		if in := findInput(form, SuccessField); in != nil {
			setAttr(in, "value", success)
		}
		if in := findInput(form, ErrorField); in != nil {
			setAttr(in, "value", failure)
		}
	})
	return n
}

// Configurator rewrites pages with contact forms.
type Configurator struct {
	Loader Loader
	// Default replaces DefaultEndpoint when set.
	Default string
	Log     *log.Logger
}

// New returns a Configurator reading overrides from src.
func New(src Source, l *log.Logger) *Configurator {
	return &Configurator{
		Loader: Loader{Source: src, Log: l},
		Log:    l,
	}
}

// Configure copies the page from r to w with its contact forms set up for
// page. Pages without contact forms are copied unchanged.
func (c *Configurator) Configure(ctx context.Context, r io.Reader, w io.Writer, page *url.URL) (int, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "Cannot read page")
	}
	if !bytes.Contains(b, []byte(MarkerClass)) {
		_, err := w.Write(b)
		return 0, err
	}

	doc, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return 0, errors.Wrapf(err, "Cannot parse page: %s", page)
	}

	endpoint := c.Loader.Load(ctx, page).Endpoint(c.Default)
	n := Apply(doc, endpoint, page)
	if n > 0 && c.Log != nil {
		c.Log.Printf("[contact] %s: %d form(s) use %s", page.Path, n, endpoint)
	}
	return n, errors.Wrap(html.Render(w, doc), "Cannot render page")
}
