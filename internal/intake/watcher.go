package intake

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"dupeguard/internal/config"
	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
)

// watchItem tracks one in-progress file in the watched directory.
type watchItem struct {
	id    string
	timer *time.Timer
}

// Watcher observes the configured downloads directory and translates file
// events into acquisition lifecycle notifications. A file counts as completed
// once it stops changing for the settle interval.
type Watcher struct {
	dir     string
	settle  time.Duration
	monitor *Monitor
	logger  *slog.Logger

	mu      sync.Mutex
	items   map[string]*watchItem
	fsw     *fsnotify.Watcher
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher builds a directory watcher for the configured downloads path.
func NewWatcher(cfg *config.Config, monitor *Monitor, logger *slog.Logger) *Watcher {
	settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		dir:     cfg.Paths.DownloadsDir,
		settle:  settle,
		monitor: monitor,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		items:   make(map[string]*watchItem),
	}
}

// Start begins watching. It fails when the directory does not exist or cannot
// be watched.
func (w *Watcher) Start(ctx context.Context) error {
	if w.dir == "" {
		return errors.New("downloads directory not configured")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching downloads directory",
		logging.String("directory", w.dir),
		logging.Duration("settle", w.settle),
		logging.String(logging.FieldEventType, "watcher_started"))
	return nil
}

// Stop ends watching and disarms all settle timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	fsw := w.fsw
	for path, item := range w.items {
		item.timer.Stop()
		delete(w.items, path)
	}
	w.running = false
	w.cancel = nil
	w.fsw = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if fsw != nil {
		_ = fsw.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watcher_error"))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		w.touch(event.Name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.drop(event.Name)
	}
}

// touch registers a new file or resets the settle timer of a known one.
func (w *Watcher) touch(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	if item, exists := w.items[path]; exists {
		item.timer.Reset(w.settle)
		return
	}

	item := &watchItem{id: uuid.NewString()}
	item.timer = time.AfterFunc(w.settle, func() { w.settled(path) })
	w.items[path] = item

	w.monitor.AcquisitionCreated(intercept.Acquisition{
		ID:   item.id,
		Path: path,
		Name: filepath.Base(path),
	})
}

// drop abandons a file that disappeared before it settled.
func (w *Watcher) drop(path string) {
	w.mu.Lock()
	item, exists := w.items[path]
	if exists {
		item.timer.Stop()
		delete(w.items, path)
	}
	w.mu.Unlock()

	if exists {
		w.monitor.Abandon(item.id)
	}
}

// settled fires when a file stopped changing for the settle interval.
func (w *Watcher) settled(path string) {
	w.mu.Lock()
	item, exists := w.items[path]
	if exists {
		delete(w.items, path)
	}
	ctx := w.ctx
	w.mu.Unlock()
	if !exists || ctx == nil {
		return
	}

	if _, err := os.Stat(path); err != nil {
		w.monitor.Abandon(item.id)
		return
	}
	w.monitor.AcquisitionCompleted(ctx, item.id)
}
