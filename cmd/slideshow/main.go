package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"github.com/neybar/pi-slide-show-sub000/pkg/collage"
	"github.com/neybar/pi-slide-show-sub000/pkg/source"
)

var (
	photoDir   = flag.String("photos", "", "local photo directory to display")
	serverURL  = flag.String("server", "", "slideshow server base URL (alternative to --photos)")
	cacheDir   = flag.String("cache", "", "directory for sized photo variants (local mode)")
	configPath = flag.String("config", "", "optional TOML config file")
	watchFlag  = flag.Bool("watch", false, "watch the photo directory and reload on changes")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *photoDir == "" && *serverURL == "" {
		klog.Exitf("one of --photos or --server is required")
	}

	cfg := collage.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = collage.LoadConfig(*configPath)
		if err != nil {
			klog.Exitf("config failed: %v", err)
		}
	}

	coll, assets, err := buildSources(cfg)
	if err != nil {
		klog.Exitf("sources failed: %v", err)
	}

	eng := collage.New(cfg, coll, assets, &logRenderer{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watchFlag {
		if *photoDir == "" {
			klog.Exitf("--watch requires --photos")
		}
		go watch(ctx, *photoDir, eng)
	}

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		klog.Exitf("run failed: %v", err)
	}
}

func buildSources(cfg *collage.Config) (source.Collection, source.Fetcher, error) {
	if *serverURL != "" {
		base := strings.TrimRight(*serverURL, "/")
		client := &http.Client{}
		return &source.HTTPSource{BaseURL: base, Client: client, Timeout: cfg.FetchTimeout},
			&source.HTTPFetcher{BaseURL: base, Client: client, Timeout: cfg.FetchTimeout},
			nil
	}

	cache := *cacheDir
	if cache == "" {
		cache = *photoDir + "/.slideshow-cache"
	}
	if err := os.MkdirAll(cache, 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir cache: %w", err)
	}

	return &source.DirSource{Root: *photoDir},
		&source.DirFetcher{Root: *photoDir, CacheDir: cache},
		nil
}

// watch reloads the collection when files under the photo directory change.
// Events are debounced so a burst of copies triggers one reload.
func watch(ctx context.Context, dir string, eng *collage.Engine) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		klog.Errorf("watch failed: %v", err)
		return
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		klog.Errorf("watch %s: %v", dir, err)
		return
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				klog.V(1).Infof("event: %s", event)
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(5*time.Second, eng.RequestReload)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			klog.Warningf("watch error: %v", err)
		}
	}
}

// logRenderer narrates layout changes instead of painting them; a display
// process consumes the same events through the collage.Renderer interface.
type logRenderer struct{}

func (r *logRenderer) Reveal(f *collage.Frame) {
	for i, row := range f.Rows {
		klog.Infof("row %d: %s", i, describeRow(row))
	}
}

func (r *logRenderer) Swap(row int, removed, inserted []*collage.Slot) {
	klog.Infof("row %d: -%d slots +%s", row, len(removed), describeRow(&collage.Row{Slots: inserted}))
}

func (r *logRenderer) Upgraded(ph *collage.Photo) {
	klog.V(1).Infof("upgraded %s to %s", ph.Path, ph.Quality)
}

func describeRow(row *collage.Row) string {
	parts := []string{}
	for _, s := range row.Slots {
		if s.IsStacked() {
			parts = append(parts, fmt.Sprintf("[1:%s+%s]", s.Stacked[0].Path, s.Stacked[1].Path))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%d:%s]", s.Span, s.Photo.Path))
	}
	return strings.Join(parts, " ")
}
