package main

import (
	"log"
	"path/filepath"

	"github.com/lemmi/sitekit"
	"github.com/lemmi/sitekit/internal/config"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the released news posts into the news page",
	Long: `build reads the manifest, converts every listed Markdown post that exists,
sorts them newest first and replaces the placeholder of the template with
them. The result overwrites the output page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRootFlags(cmd)
		applyNewsFlags(cmd, &cfg.News)
		if err := cfg.Validate(); err != nil {
			return err
		}
		b, err := newBuilder(cfg)
		if err != nil {
			return err
		}
		_, err = b.Build()
		return err
	},
}

func init() {
	f := buildCmd.Flags()
	f.String("dir", "", "directory of the Markdown posts")
	f.String("manifest", "", "manifest listing the released posts")
	f.String("template", "", "page template")
	f.StringP("output", "o", "", "page to write")
	f.Bool("sanitize", false, "strip unsafe HTML from the converted posts")
	f.Bool("tidy", false, "tidy the written page")
	rootCmd.AddCommand(buildCmd)
}

func applyNewsFlags(cmd *cobra.Command, n *config.News) {
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"dir":      &n.Dir,
		"manifest": &n.Manifest,
		"template": &n.Template,
		"output":   &n.Output,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("sanitize") {
		n.Sanitize, _ = flags.GetBool("sanitize")
	}
	if flags.Changed("tidy") {
		n.Tidy, _ = flags.GetBool("tidy")
	}
}

func newBuilder(c *config.Config) (*sitekit.Builder, error) {
	src, err := openSource(c)
	if err != nil {
		return nil, err
	}
	return &sitekit.Builder{
		Source:      src,
		NewsDir:     c.News.Dir,
		Manifest:    c.News.Manifest,
		Template:    c.News.Template,
		Output:      filepath.Join(c.Root, filepath.FromSlash(c.News.Output)),
		Placeholder: c.News.Placeholder,
		Sanitize:    c.News.Sanitize,
		Tidy:        c.News.Tidy,
		Log:         log.New(log.Writer(), "", log.Flags()),
	}, nil
}
