// Package config loads the sitekit settings from defaults, an optional
// YAML file and SITEKIT_* environment variables, in that order.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// DefaultFile is read when no other file is given.
const DefaultFile = "sitekit.yml"

type News struct {
	Dir         string `koanf:"dir"`
	Manifest    string `koanf:"manifest"`
	Template    string `koanf:"template"`
	Output      string `koanf:"output"`
	Placeholder string `koanf:"placeholder"`
	Sanitize    bool   `koanf:"sanitize"`
	Tidy        bool   `koanf:"tidy"`
}

type Forms struct {
	Endpoint string `koanf:"endpoint"`
	Origin   string `koanf:"origin"`
	Fetch    bool   `koanf:"fetch"`
}

type Serve struct {
	Bind  string `koanf:"bind"`
	Net   string `koanf:"net"`
	Watch bool   `koanf:"watch"`
}

type Config struct {
	Root   string `koanf:"root"`
	Git    bool   `koanf:"git"`
	Branch string `koanf:"branch"`
	News   News   `koanf:"news"`
	Forms  Forms  `koanf:"forms"`
	Serve  Serve  `koanf:"serve"`
}

// Default returns the layout of the website repository.
func Default() *Config {
	return &Config{
		Root:   ".",
		Branch: "master",
		News: News{
			Dir:         "de/news/news",
			Manifest:    "de/news/news/releases.json",
			Template:    "de/news/template.html",
			Output:      "de/news/index.html",
			Placeholder: "{{NEWS_CONTENT}}",
		},
		Serve: Serve{
			Bind: "localhost:8080",
			Net:  "tcp",
		},
	}
}

// Load reads path on top of the defaults, then the environment. A
// missing file is only an error if required is set.
func Load(path string, required bool) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "Cannot read config: %q", path)
		}
	} else if !os.IsNotExist(err) || required {
		return nil, errors.Wrapf(err, "Cannot access config: %q", path)
	}

	// SITEKIT_NEWS_OUTPUT -> news.output
	if err := k.Load(env.Provider("SITEKIT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SITEKIT_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, "Cannot load environment")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "Cannot decode config")
	}
	return cfg, nil
}

// Validate reports settings the commands cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.News.Dir == "":
		return errors.New("news.dir is required")
	case c.News.Manifest == "":
		return errors.New("news.manifest is required")
	case c.News.Template == "":
		return errors.New("news.template is required")
	case c.News.Output == "":
		return errors.New("news.output is required")
	case c.Git && c.Branch == "":
		return errors.New("branch is required with git")
	}
	return nil
}

// ValidateServe checks the preview server settings on top of Validate.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Git && c.Serve.Watch {
		return errors.New("serve.watch cannot be used with git, the branch tip is read once")
	}
	return nil
}

// ValidateForms checks the settings of the forms command.
func (c *Config) ValidateForms() error {
	if c.Forms.Origin == "" {
		return errors.New("forms.origin is required")
	}
	return nil
}
