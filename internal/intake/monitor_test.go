package intake

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dupeguard/internal/config"
	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
	"dupeguard/internal/oracle"
	"dupeguard/internal/records"
	"dupeguard/internal/resolver"
)

type fakeSource struct {
	mu       sync.Mutex
	suspends int
	replays  int
}

func (f *fakeSource) Suspend(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspends++
	return nil
}

func (f *fakeSource) Replay(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replays++
	return nil
}

func (f *fakeSource) replayCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replays
}

func newTestMonitor(t *testing.T, oracleClient oracle.Client) (*Monitor, *fakeSource, *records.MemoryStore) {
	t.Helper()
	if oracleClient == nil {
		oracleClient = oracle.Func(func(context.Context, string) (string, error) {
			return "", oracle.ErrUnavailable
		})
	}
	cfg := config.Default()
	source := &fakeSource{}
	store := records.NewMemoryStore()
	descriptors := intercept.NewDescriptorStore("", logging.NewNop())
	res := resolver.New(store, 0.8, logging.NewNop())
	controller := intercept.NewController(&cfg, source, oracleClient, res, descriptors, nil, logging.NewNop())
	t.Cleanup(controller.Close)

	return NewMonitor(controller, store, oracleClient, logging.NewNop()), source, store
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCompletedAcquisitionIsRegistered(t *testing.T) {
	oracleClient := oracle.Func(func(context.Context, string) (string, error) {
		return "f00dcafe", nil
	})
	monitor, source, store := newTestMonitor(t, oracleClient)

	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.pdf")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	event := intercept.Acquisition{
		ID:             "acq-1",
		Path:           path,
		Name:           "fresh.pdf",
		DeclaredSize:   7,
		SourceLocation: "https://example.com/fresh.pdf",
	}
	monitor.AcquisitionCreated(event)
	waitUntil(t, "verification to resume", func() bool { return source.replayCount() == 1 })

	// The replay's creation notification arrives, then the file completes.
	monitor.AcquisitionCreated(event)
	monitor.AcquisitionCompleted(context.Background(), "acq-1")

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("registered %d records, want 1", len(list))
	}
	record := list[0]
	if record.DisplayName != "fresh.pdf" {
		t.Errorf("DisplayName = %q", record.DisplayName)
	}
	if record.Size != int64(len("content")) {
		t.Errorf("Size = %d, want actual file size", record.Size)
	}
	if record.Fingerprint != "f00dcafe" {
		t.Errorf("Fingerprint = %q", record.Fingerprint)
	}
	if record.SourceLocation != "https://example.com/fresh.pdf" {
		t.Errorf("SourceLocation = %q", record.SourceLocation)
	}
	if monitor.ActiveCount() != 0 {
		t.Error("completed acquisition must leave the active table")
	}
}

func TestMissingFileSkipsRegistration(t *testing.T) {
	monitor, _, store := newTestMonitor(t, nil)

	monitor.AcquisitionCreated(intercept.Acquisition{
		ID:   "acq-2",
		Path: "/nonexistent/ghost.bin",
		Name: "ghost.bin",
	})
	waitUntil(t, "verification to finish", func() bool { return monitor.controller.ArmedOverrides() == 1 })

	monitor.AcquisitionCreated(intercept.Acquisition{ID: "acq-2", Path: "/nonexistent/ghost.bin", Name: "ghost.bin"})
	monitor.AcquisitionCompleted(context.Background(), "acq-2")

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("missing metadata must skip registration, count = %d", count)
	}
}

func TestUnknownCompletionIsIgnored(t *testing.T) {
	monitor, _, store := newTestMonitor(t, nil)
	monitor.AcquisitionCompleted(context.Background(), "never-created")
	count, _ := store.Count(context.Background())
	if count != 0 {
		t.Fatalf("untracked completion must not register, count = %d", count)
	}
}

func TestAbandonDropsTracking(t *testing.T) {
	monitor, _, _ := newTestMonitor(t, nil)
	monitor.AcquisitionCreated(intercept.Acquisition{ID: "acq-3", Path: "/d/x.bin", Name: "x.bin"})
	monitor.Abandon("acq-3")
	if monitor.ActiveCount() != 0 {
		t.Fatal("abandoned acquisition must leave the active table")
	}
}
