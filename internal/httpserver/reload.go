package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
)

// Reloader watches the route-table file and hot-swaps the router's
// table when it changes. The decision cache is invalidated by the swap;
// the audit ring survives.
type Reloader struct {
	watcher *fsnotify.Watcher
	router  *authority.Router
	path    string
	log     *slog.Logger
}

// NewReloader creates a file watcher for the routes file. A missing
// file is not an error; the watcher simply never fires.
func NewReloader(router *authority.Router, path string, log *slog.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := watcher.Add(path); err != nil {
				watcher.Close()
				return nil, fmt.Errorf("watch %q: %w", path, err)
			}
		}
	}

	return &Reloader{
		watcher: watcher,
		router:  router,
		path:    path,
		log:     log,
	}, nil
}

// Run watches for changes and reloads the route table. Blocks until
// ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reloading, so
	// editors that write in several chunks trigger one reload.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("file watcher", "err", err)
		}
	}
}

func (r *Reloader) reload() {
	routes, hash, err := authority.LoadRoutes(r.path)
	if err != nil {
		r.log.Error("hot-reload failed, keeping previous table", "path", r.path, "err", err)
		return
	}
	r.router.Replace(routes, hash)
	r.log.Info("route table reloaded", "routes", len(routes), "hash", hash)
}
