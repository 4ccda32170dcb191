package sitekit

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/lemmi/sitekit/backend"
	"github.com/pkg/errors"
)

// ErrNoReleases is returned when a manifest lacks a "releases" array.
var ErrNoReleases = errors.New(`manifest must contain a "releases" array`)

// Manifest lists the posts that are eligible for publication.
type Manifest struct {
	Releases []string `json:"releases"`
}

// LoadManifest reads the manifest at path from fs.
func LoadManifest(fs backend.Backend, path string) (Manifest, error) {
	var m Manifest

	b, err := backend.ReadFile(fs, path)
	if err != nil {
		return m, errors.Wrapf(err, "Cannot read manifest: %q", path)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return m, &os.PathError{
			Op:   "Parsing json in",
			Path: path,
			Err:  err,
		}
	}

	releases, ok := raw["releases"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(releases), []byte("[")) {
		return m, errors.Wrap(ErrNoReleases, path)
	}
	if err := json.Unmarshal(releases, &m.Releases); err != nil {
		return m, &os.PathError{
			Op:   "Parsing releases in",
			Path: path,
			Err:  err,
		}
	}
	return m, nil
}

// Contains reports whether name is listed.
func (m Manifest) Contains(name string) bool {
	for _, r := range m.Releases {
		if r == name {
			return true
		}
	}
	return false
}

// Save writes the manifest to the os path.
func (m Manifest) Save(path string) error {
	if m.Releases == nil {
		m.Releases = []string{}
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return errors.Wrapf(ioutil.WriteFile(path, b, 0644), "Cannot write manifest: %q", path)
}
