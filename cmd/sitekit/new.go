package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lemmi/sitekit"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a news post and release it",
	Long: `new writes YYYY-MM-DD-<title>.md into the news directory and appends it to
the manifest, so the next build publishes it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRootFlags(cmd)
		flags := cmd.Flags()
		title, _ := flags.GetString("title")
		date, _ := flags.GetString("date")
		simulate, _ := flags.GetBool("dry-run")
		edit, _ := flags.GetBool("edit")

		p := sitekit.Post{Title: title, Date: time.Now()}
		if date != "" {
			d, err := time.Parse("2006-01-02", date)
			if err != nil {
				return errors.Wrapf(err, "Invalid date: %q", date)
			}
			p.Date = d
		}
		if sitekit.Slug(title) == "" {
			return errors.Errorf("Title %q has nothing to name the file after", title)
		}

		dir := filepath.Join(cfg.Root, filepath.FromSlash(cfg.News.Dir))
		manifest := filepath.Join(cfg.Root, filepath.FromSlash(cfg.News.Manifest))
		mdpath := filepath.Join(dir, p.Name())

		fmt.Println(mdpath)
		fmt.Print(p.Body())
		if simulate {
			return nil
		}
		if err := p.Create(dir, manifest); err != nil {
			return err
		}

		if edit {
			vimpath, err := exec.LookPath("vim")
			if err != nil {
				return err
			}
			c := exec.Command(vimpath, mdpath)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()
		}
		return nil
	},
}

func init() {
	f := newCmd.Flags()
	f.String("title", "Neue Meldung", "title of the post")
	f.String("date", "", "publication date, YYYY-MM-DD (default today)")
	f.BoolP("dry-run", "n", false, "only show the result")
	f.BoolP("edit", "e", false, "open vim to edit the post")
	rootCmd.AddCommand(newCmd)
}
