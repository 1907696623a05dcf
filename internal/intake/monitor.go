package intake

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
	"dupeguard/internal/oracle"
	"dupeguard/internal/records"
)

// Monitor routes lifecycle notifications to the interception controller and
// registers completed files in the record store.
type Monitor struct {
	controller *intercept.Controller
	store      records.Store
	oracle     oracle.Client
	logger     *slog.Logger

	mu     sync.Mutex
	active map[string]intercept.Acquisition
}

// NewMonitor wires a monitor. The oracle is optional; without it registered
// records simply carry no fingerprint.
func NewMonitor(controller *intercept.Controller, store records.Store, oracleClient oracle.Client, logger *slog.Logger) *Monitor {
	return &Monitor{
		controller: controller,
		store:      store,
		oracle:     oracleClient,
		logger:     logging.NewComponentLogger(logger, "intake"),
		active:     make(map[string]intercept.Acquisition),
	}
}

// AcquisitionCreated handles a new-acquisition notification.
func (m *Monitor) AcquisitionCreated(event intercept.Acquisition) {
	if event.ID == "" {
		return
	}
	m.mu.Lock()
	m.active[event.ID] = event
	m.mu.Unlock()

	m.controller.OnCreated(event)
}

// NameKnown handles the name-assigned notification for an acquisition.
func (m *Monitor) NameKnown(id, name string) {
	m.mu.Lock()
	if event, ok := m.active[id]; ok {
		event.Name = name
		m.active[id] = event
	}
	m.mu.Unlock()

	m.controller.OnNameKnown(id, name)
}

// AcquisitionCompleted handles a completion notification. Files the controller
// clears for registration are fingerprinted best-effort and inserted into the
// record store; malformed or missing metadata skips registration for that item
// only.
func (m *Monitor) AcquisitionCompleted(ctx context.Context, id string) {
	m.mu.Lock()
	event, tracked := m.active[id]
	delete(m.active, id)
	m.mu.Unlock()

	decision := m.controller.Completion(id)
	logger := m.logger.With(logging.String(logging.FieldAcquisitionID, id))
	if !decision.Register {
		logger.Debug("completion not registered",
			logging.String(logging.FieldEventType, "registration_skipped"),
			logging.String("disposition", string(decision.State)))
		return
	}
	if !tracked {
		logger.Debug("completion for unknown acquisition",
			logging.String(logging.FieldEventType, "registration_skipped"))
		return
	}
	m.register(ctx, event, logger)
}

func (m *Monitor) register(ctx context.Context, event intercept.Acquisition, logger *slog.Logger) {
	info, err := os.Stat(event.Path)
	if err != nil || info.IsDir() {
		logger.Warn("completion metadata unavailable, registration skipped",
			logging.Error(err),
			logging.String(logging.FieldEventType, "registration_metadata_failed"),
			logging.String("file_path", event.Path),
			logging.String(logging.FieldImpact, "file will not participate in future duplicate checks"))
		return
	}

	name := event.Name
	if name == "" {
		name = filepath.Base(event.Path)
	}

	fingerprint := ""
	if m.oracle != nil {
		if hash, err := m.oracle.Fingerprint(ctx, event.Path); err == nil {
			fingerprint = hash
		}
	}

	record := records.FileRecord{
		ID:             uuid.NewString(),
		DisplayName:    name,
		Size:           info.Size(),
		StoragePath:    event.Path,
		SourceLocation: event.SourceLocation,
		Fingerprint:    fingerprint,
	}
	if err := m.store.Insert(ctx, record); err != nil {
		logger.Error("record insert failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "record_insert_failed"),
			logging.String(logging.FieldErrorHint, "check data directory permissions and disk space"))
		return
	}

	count, err := m.store.Count(ctx)
	if err != nil {
		count = -1
	}
	logger.Info("file registered",
		logging.String(logging.FieldEventType, "file_registered"),
		logging.String(logging.FieldRecordID, record.ID),
		logging.String("filename", name),
		logging.Int64("size", record.Size),
		logging.Int("tracked_count", count))
}

// ActiveCount reports acquisitions currently tracked between creation and
// completion.
func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Abandon drops a tracked acquisition without registration, used when the
// event source observes the file disappear before completion.
func (m *Monitor) Abandon(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}
