package contactform

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ConfigureDir configures every HTML page below root as if it was served
// from origin. Only pages with contact forms are rewritten.
func (c *Configurator) ConfigureDir(ctx context.Context, root string, origin string) (pages, forms int, err error) {
	base, err := parseOrigin(origin)
	if err != nil {
		return 0, 0, err
	}

	err = filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".html") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		b, err := ioutil.ReadFile(p)
		if err != nil {
			return errors.Wrapf(err, "Cannot read page: %q", p)
		}
		page := *base
		page.Path = "/" + filepath.ToSlash(rel)

		buf := bytes.Buffer{}
		n, err := c.Configure(ctx, bytes.NewReader(b), &buf, &page)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		pages++
		forms += n
		return errors.Wrapf(ioutil.WriteFile(p, buf.Bytes(), fi.Mode()), "Cannot write page: %q", p)
	})
	return pages, forms, err
}

func parseOrigin(origin string) (*url.URL, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid origin: %q", origin)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("Invalid origin: %q, want scheme://host", origin)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}
