package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"dupeguard/internal/config"
	"dupeguard/internal/intake"
	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
	"dupeguard/internal/notifications"
	"dupeguard/internal/oracle"
	"dupeguard/internal/preflight"
	"dupeguard/internal/records"
	"dupeguard/internal/resolver"
)

// LockFileName guards against two daemons sharing one data directory.
const LockFileName = "dupeguardd.lock"

// DescriptorFileName holds pending-override descriptors under the data
// directory.
const DescriptorFileName = "pending_overrides.json"

// Status is the daemon state snapshot surfaced over IPC.
type Status struct {
	Running            bool
	PID                int
	StartedAt          time.Time
	DBPath             string
	LockPath           string
	SocketPath         string
	TrackedCount       int
	ActiveAcquisitions int
	PendingOverrides   int
	ArmedOverrides     int
	WatchEnabled       bool
	WatchDirectory     string
	Checks             []preflight.Result
}

// Daemon owns the engine components and their lifecycle.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lock        *flock.Flock
	store       *records.SQLiteStore
	oracle      oracle.Client
	descriptors *intercept.DescriptorStore
	controller  *intercept.Controller
	monitor     *intake.Monitor
	watcher     *intake.Watcher
	notifier    notifications.Service

	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

// New acquires the single-instance lock and wires all components. The caller
// must Close the daemon to release the lock.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, LockFileName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another instance holds %s", lockPath)
	}

	store, err := records.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	oracleClient := oracle.NewProcess(cfg, logger)
	descriptors := intercept.NewDescriptorStore(filepath.Join(cfg.Paths.DataDir, DescriptorFileName), logger)
	notifier := notifications.NewService(cfg)
	res := resolver.New(store, cfg.Intercept.SimilarityThreshold, logger)
	source := newPassiveSource(logger)
	controller := intercept.NewController(cfg, source, oracleClient, res, descriptors, notifier, logger)
	monitor := intake.NewMonitor(controller, store, oracleClient, logger)

	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		lock:        lock,
		store:       store,
		oracle:      oracleClient,
		descriptors: descriptors,
		controller:  controller,
		monitor:     monitor,
		notifier:    notifier,
	}
	if cfg.Watch.Enabled {
		d.watcher = intake.NewWatcher(cfg, monitor, logger)
	}
	return d, nil
}

// Start runs preflight checks and brings up the event sources.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"))
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	d.running = true
	d.startedAt = time.Now()
	d.logger.Info("engine started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Bool("watch_enabled", d.watcher != nil))
	return nil
}

// Stop halts the event sources. The daemon keeps serving IPC so the engine
// can be restarted without a new process.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.running = false
	d.logger.Info("engine stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops everything and releases the lock and database.
func (d *Daemon) Close() {
	d.Stop()
	d.controller.Close()
	if err := d.oracle.Close(); err != nil {
		d.logger.Warn("oracle shutdown failed", logging.Error(err))
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("record store close failed", logging.Error(err))
	}
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}
}

// Running reports whether the engine is started.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Status assembles a snapshot for IPC clients.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	running := d.running
	startedAt := d.startedAt
	d.mu.Unlock()

	count, err := d.store.Count(ctx)
	if err != nil {
		count = -1
	}
	return Status{
		Running:            running,
		PID:                os.Getpid(),
		StartedAt:          startedAt,
		DBPath:             d.store.Path(),
		LockPath:           filepath.Join(d.cfg.Paths.DataDir, LockFileName),
		SocketPath:         d.cfg.SocketPath(),
		TrackedCount:       count,
		ActiveAcquisitions: d.controller.ActiveCount(),
		PendingOverrides:   len(d.descriptors.List()),
		ArmedOverrides:     d.controller.ArmedOverrides(),
		WatchEnabled:       d.cfg.Watch.Enabled,
		WatchDirectory:     d.cfg.Paths.DownloadsDir,
		Checks:             preflight.RunAll(ctx, d.cfg),
	}
}

// AcquisitionCreated feeds an externally reported acquisition into the engine.
func (d *Daemon) AcquisitionCreated(event intercept.Acquisition) error {
	if strings.TrimSpace(event.ID) == "" {
		return errors.New("acquisition id is required")
	}
	d.monitor.AcquisitionCreated(event)
	return nil
}

// AcquisitionNameKnown reports the assigned name for an acquisition.
func (d *Daemon) AcquisitionNameKnown(id, name string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("acquisition id is required")
	}
	d.monitor.NameKnown(id, name)
	return nil
}

// AcquisitionCompleted reports a finished acquisition.
func (d *Daemon) AcquisitionCompleted(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("acquisition id is required")
	}
	d.monitor.AcquisitionCompleted(ctx, id)
	return nil
}

// ListRecords returns the tracked collection ordered by registration time.
func (d *Daemon) ListRecords(ctx context.Context) ([]records.FileRecord, error) {
	return d.store.List(ctx)
}

// RemoveRecord deletes one record and reports the new tracked count.
func (d *Daemon) RemoveRecord(ctx context.Context, id string) (bool, int, error) {
	removed, err := d.store.Remove(ctx, id)
	if err != nil {
		return false, 0, err
	}
	count, err := d.store.Count(ctx)
	if err != nil {
		count = -1
	}
	if removed {
		d.logger.Info("record removed",
			logging.String(logging.FieldEventType, "record_removed"),
			logging.String(logging.FieldRecordID, id),
			logging.Int("tracked_count", count))
	}
	return removed, count, nil
}

// ClearRecords empties the collection and reports how many were removed.
func (d *Daemon) ClearRecords(ctx context.Context) (int64, error) {
	removed, err := d.store.RemoveAll(ctx)
	if err != nil {
		return 0, err
	}
	d.logger.Info("record collection cleared",
		logging.String(logging.FieldEventType, "records_cleared"),
		logging.Int64("removed_count", removed),
		logging.Int("tracked_count", 0))
	return removed, nil
}

// ExportRecords renders the collection as CSV.
func (d *Daemon) ExportRecords(ctx context.Context) (string, error) {
	list, err := d.store.List(ctx)
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	if err := records.ExportCSV(&builder, list); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// PendingOverrides lists blocked duplicates awaiting a decision.
func (d *Daemon) PendingOverrides() []intercept.PendingOverride {
	return d.descriptors.List()
}

// AllowAnyway executes the proceed-anyway decision for a blocked item.
func (d *Daemon) AllowAnyway(ctx context.Context, id string) (intercept.PendingOverride, error) {
	return d.controller.AllowAnyway(ctx, id)
}

// TestNotification sends a test push notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "notification sent", nil
}

// LogPath returns the active daemon log file, if file logging is configured.
func (d *Daemon) LogPath() string {
	if d.cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(d.cfg.Paths.LogDir, logging.LogFileName)
}
