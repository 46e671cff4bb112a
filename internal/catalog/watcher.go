package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	SettleDelay time.Duration // quiet period after the last write before re-ingesting
}

// Watcher re-ingests the catalog file whenever it changes on disk.
type Watcher struct {
	path     string
	ingester *Ingester
	opts     WatcherOptions
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex // protects timer
	timer *time.Timer

	done   chan struct{}
	wg     sync.WaitGroup
	ingest chan struct{}
}

// NewWatcher creates a watcher for the catalog at path.
func NewWatcher(path string, ingester *Ingester, opts WatcherOptions, logger *slog.Logger) (*Watcher, error) {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory: editors often replace the file, which drops a
	// watch placed on the file itself.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch catalog directory: %w", err)
	}

	return &Watcher{
		path:     abs,
		ingester: ingester,
		opts:     opts,
		logger:   logger,
		watcher:  fw,
		done:     make(chan struct{}),
		ingest:   make(chan struct{}, 1),
	}, nil
}

// Start processes file events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Go(func() { w.processEvents() })
	w.wg.Go(func() { w.runIngests(ctx) })
	w.logger.Info("watching catalog for changes", "path", w.path)
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debounce()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

// debounce restarts the settle timer.
func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		select {
		case w.ingest <- struct{}{}:
		default:
			// An ingest is already queued and will read the latest file.
		}
	})
}

func (w *Watcher) runIngests(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.ingest:
			if _, err := w.ingester.IngestFile(ctx, w.path, true); err != nil {
				w.logger.Error("catalog re-ingest failed", "path", w.path, "error", err)
			}
		}
	}
}

// Stop stops watching and waits for an in-flight ingest to finish.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
