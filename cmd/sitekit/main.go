package main

import (
	"fmt"
	"log"
	"os"

	"github.com/lemmi/sitekit/backend"
	"github.com/lemmi/sitekit/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	DEBUG   bool
	verbose bool
	cfg     *config.Config
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

var rootCmd = &cobra.Command{
	Use:   "sitekit",
	Short: "Build helpers for the static website",
	Long: `sitekit renders the released news posts into the news page and points
the contact forms at the contact API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.Flags() | log.Lmicroseconds)
		}
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if DEBUG {
			log.Printf("config: %+v", *cfg)
		}
		return nil
	},
}

func init() {
	log.SetFlags(log.Flags() | log.Lshortfile)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file")
	rootCmd.PersistentFlags().BoolVar(&DEBUG, "debug", false, "set debug output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "timestamps with microseconds")
	rootCmd.PersistentFlags().String("root", ".", "path to the website repository")
	rootCmd.PersistentFlags().Bool("git", false, "read from the tip of a branch of the repository at root")
	rootCmd.PersistentFlags().String("branch", "master", "branch to read with --git")
}

// applyRootFlags lets explicitly set global flags win over the config.
func applyRootFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root, _ = flags.GetString("root")
	}
	if flags.Changed("git") {
		cfg.Git, _ = flags.GetBool("git")
	}
	if flags.Changed("branch") {
		cfg.Branch, _ = flags.GetString("branch")
	}
}

func openSource(c *config.Config) (backend.Backend, error) {
	if c.Git {
		return backend.Git(c.Root, c.Branch)
	}
	return backend.Dir(c.Root), nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if st, ok := err.(stackTracer); ok && DEBUG {
		fmt.Fprintf(os.Stderr, "%+v\n", st.StackTrace())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
