// Package watch runs a handler for every ledger dropped into a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ginjaninja78/tax-hall-analytics/pkg/utils"
)

// DefaultDebounce is how long a file must be quiet before it is handled.
// Spreadsheet applications write a workbook in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one ledger. ctx is cancelled when a newer ledger
// arrives before the handler returns.
type Handler func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	Dir        string
	Extensions []string
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Watcher monitors a directory for new or replaced ledgers.
type Watcher struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	timers  sync.WaitGroup
}

func New(cfg Config, handler Handler) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(slog.String("component", "watch")),
		pending: make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is done. Only one handler runs at a time: a ledger
// that becomes ready cancels the handler still working on an older one.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}
	w.logger.Info("watching", slog.String("dir", w.cfg.Dir), slog.Any("extensions", w.cfg.Extensions))

	ready := make(chan string)
	done := make(chan struct{})
	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc = func() {}
	)
	defer func() {
		close(done)
		w.stopTimers()
		w.timers.Wait()
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !utils.HasExtension(evt.Name, w.cfg.Extensions) {
				continue
			}
			w.schedule(ctx, evt.Name, ready, done)

		case path := <-ready:
			cancel()
			var jobCtx context.Context
			jobCtx, cancel = context.WithCancel(ctx)
			wg.Add(1)
			go func(ctx context.Context, path string) {
				defer wg.Done()
				w.handle(ctx, path)
			}(jobCtx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// schedule (re)starts the quiet timer for path. A fired timer gives up
// delivering path once ctx is cancelled or done is closed.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.timers.Done()
	}
	w.timers.Add(1)
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.timers.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		case <-done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.timers.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	start := time.Now()
	w.logger.Info("ledger detected", slog.String("path", path))

	err := w.handler(ctx, path)
	switch {
	case err == nil:
		w.logger.Info("ledger processed", slog.String("path", path), slog.Duration("elapsed", time.Since(start)))
	case errors.Is(err, context.Canceled):
		w.logger.Warn("ledger superseded", slog.String("path", path))
	default:
		w.logger.Error("ledger failed", slog.String("path", path), slog.Any("error", err))
	}
}
