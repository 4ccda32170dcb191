package main

import (
	"log"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lemmi/compress"
	"github.com/lemmi/sitekit"
	"github.com/lemmi/sitekit/backend"
	"github.com/lemmi/sitekit/contactform"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the news page and preview the website",
	Long: `serve builds the news page once and serves the website from root. Contact
forms are configured per request for the origin the browser used, with
config.local.json taking effect like on the live site. With --watch the
news page is rebuilt whenever a post, the manifest or the template changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("bind", "", "address or path to bind to")
	f.String("net", "", `"tcp", "tcp4", "tcp6", "unix" or "unixpacket"`)
	f.Bool("watch", false, "rebuild the news page on changes")
	rootCmd.AddCommand(serveCmd)
}

type rebuilder struct {
	mu sync.Mutex
	b  *sitekit.Builder
}

func (r *rebuilder) build() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.b.Build(); err != nil {
		log.Printf("Error during rebuild: %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	applyRootFlags(cmd)
	flags := cmd.Flags()
	if flags.Changed("bind") {
		cfg.Serve.Bind, _ = flags.GetString("bind")
	}
	if flags.Changed("net") {
		cfg.Serve.Net, _ = flags.GetString("net")
	}
	if flags.Changed("watch") {
		cfg.Serve.Watch, _ = flags.GetBool("watch")
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	b, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	if _, err := b.Build(); err != nil {
		return err
	}

	if cfg.Serve.Watch {
		w, err := watch(&rebuilder{b: b}, cfg.Root, []string{
			cfg.News.Dir,
			path.Dir(cfg.News.Manifest),
			path.Dir(cfg.News.Template),
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	ln, err := net.Listen(cfg.Serve.Net, cfg.Serve.Bind)
	if err != nil {
		return err
	}
	defer ln.Close()
	if strings.HasPrefix(cfg.Serve.Net, "unix") {
		if err := os.Chmod(cfg.Serve.Bind, 0666); err != nil {
			return err
		}
	}

	log.Printf("Serving %q on %s %s", cfg.Root, cfg.Serve.Net, cfg.Serve.Bind)
	return http.Serve(ln, compress.New(newHandler(cfg.Root, cfg.Forms.Endpoint)))
}

func newHandler(root, endpoint string) http.Handler {
	fs := backend.Dir(root)
	staticHandler := sitekit.NewStaticHandler(fs)

	forms := contactform.New(contactform.FileSource{FS: fs}, log.New(log.Writer(), "", log.Flags()))
	forms.Default = endpoint

	h := contactform.Handler(staticHandler, fs, forms)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.ServeHTTP(w, r)
	})
}

// watch rebuilds through r when anything in dirs below root changes.
// Events are debounced, the output page itself is ignored.
func watch(r *rebuilder, root string, dirs []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	output, _ := filepath.Abs(r.b.Output)
	seen := map[string]bool{}
	for _, d := range dirs {
		p := filepath.Join(root, filepath.FromSlash(d))
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := watcher.Add(p); err != nil {
			log.Printf("Failed to watch %s: %v", p, err)
		}
	}

	go func() {
		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if abs, _ := filepath.Abs(event.Name); abs == output {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				log.Printf("Change detected: %s (%s)", event.Name, event.Op)
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, r.build)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Watcher error: %v", err)
			}
		}
	}()
	return watcher, nil
}
