// Package contactform points the contact forms of a page at the contact API
// and fills in their redirect fields.
//
// A page may be accompanied by config.local.json two directories above it.
// Its contactApiEndpoint replaces the production endpoint, which allows
// local development against another API.
package contactform

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"
)

// DefaultEndpoint is used when no override is configured.
const DefaultEndpoint = "https://elim.vertamob.de/api/v1/contact"

// OverrideRef is resolved against the page URL to find the override.
const OverrideRef = "../../config.local.json"

// ErrNotFound is returned by a Source when there is nothing to fetch.
var ErrNotFound = errors.New("config not found")

// Config is the override configuration.
type Config struct {
	ContactAPIEndpoint string `json:"contactApiEndpoint"`
}

// Endpoint returns the override or def if there is none.
func (c Config) Endpoint(def string) string {
	if c.ContactAPIEndpoint != "" {
		return c.ContactAPIEndpoint
	}
	if def != "" {
		return def
	}
	return DefaultEndpoint
}

// A Source fetches the override configuration.
type Source interface {
	Fetch(ctx context.Context, ref *url.URL) ([]byte, error)
}

// HTTPSource fetches over HTTP. Any non 2xx answer counts as not found.
type HTTPSource struct {
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context, ref *url.URL) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrNotFound, "%s: %s", ref, resp.Status)
	}
	return ioutil.ReadAll(resp.Body)
}

// FileSource reads the path of the reference from a backend.
type FileSource struct {
	FS backend.Backend
}

func (s FileSource) Fetch(ctx context.Context, ref *url.URL) ([]byte, error) {
	b, err := backend.ReadFile(s.FS, ref.Path)
	if backend.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s", ref.Path)
	}
	return b, err
}

// Loader looks up the override for a page.
type Loader struct {
	Source Source
	Log    *log.Logger
}

func (l Loader) logger() *log.Logger {
	if l.Log == nil {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return l.Log
}

// Load returns the override for page. It never fails: a missing override
// and any error while fetching or decoding it yield the empty Config.
func (l Loader) Load(ctx context.Context, page *url.URL) Config {
	ref := page.ResolveReference(&url.URL{Path: OverrideRef})

	b, err := l.Source.Fetch(ctx, ref)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			l.logger().Printf("[contact] no %s found, using production defaults", ref.Path)
		} else {
			l.logger().Printf("[contact] error loading config: %v", err)
		}
		return Config{}
	}

	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		l.logger().Printf("[contact] error loading config: %v", errors.Wrapf(err, "Parsing json in %s", ref.Path))
		return Config{}
	}
	l.logger().Printf("[contact] loaded %s", ref.Path)
	return c
}
