package main

import (
	"context"
	"log"
	"net/http"

	"github.com/lemmi/sitekit/backend"
	"github.com/lemmi/sitekit/contactform"
	"github.com/spf13/cobra"
)

var formsCmd = &cobra.Command{
	Use:   "forms [dir]",
	Short: "Point the contact forms of the built pages at the contact API",
	Long: `forms rewrites every HTML page below dir (default: root) that contains a
contact form. The action is set to the contact API endpoint, the redirect
fields are computed as if the page was served from --origin.

The endpoint is taken from config.local.json two directories above a page
when it exists, otherwise the production endpoint is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRootFlags(cmd)
		flags := cmd.Flags()
		if flags.Changed("origin") {
			cfg.Forms.Origin, _ = flags.GetString("origin")
		}
		if flags.Changed("endpoint") {
			cfg.Forms.Endpoint, _ = flags.GetString("endpoint")
		}
		if flags.Changed("fetch") {
			cfg.Forms.Fetch, _ = flags.GetBool("fetch")
		}

		if err := cfg.ValidateForms(); err != nil {
			return err
		}

		dir := cfg.Root
		if len(args) > 0 {
			dir = args[0]
		}

		var src contactform.Source = contactform.FileSource{FS: backend.Dir(dir)}
		if cfg.Forms.Fetch {
			src = contactform.HTTPSource{Client: &http.Client{}}
		}
		c := contactform.New(src, log.New(log.Writer(), "", log.Flags()))
		c.Default = cfg.Forms.Endpoint

		timeout, _ := flags.GetDuration("timeout")
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		pages, forms, err := c.ConfigureDir(ctx, dir, cfg.Forms.Origin)
		if err != nil {
			return err
		}
		log.Printf("%d contact form(s) configured in %d page(s)", forms, pages)
		return nil
	},
}

func init() {
	f := formsCmd.Flags()
	f.String("origin", "", "scheme://host the pages are served from (required)")
	f.String("endpoint", "", "endpoint used when no override exists (default production)")
	f.Bool("fetch", false, "fetch config.local.json from the origin instead of dir")
	f.Duration("timeout", 0, "give up after this long, 0 waits forever")
	rootCmd.AddCommand(formsCmd)
}
