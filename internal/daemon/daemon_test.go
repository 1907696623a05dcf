package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dupeguard/internal/config"
	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
)

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DownloadsDir = dir
	cfg.Watch.Enabled = false
	cfg.Oracle.Command = ""
	return &cfg
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	d, err := New(testDaemonConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)

	if d.Running() {
		t.Fatal("daemon should not run before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should run after Start")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
	d.Stop()
	if d.Running() {
		t.Fatal("daemon should stop after Stop")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testDaemonConfig(t)
	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(first.Close)

	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatal("second instance must fail to acquire the lock")
	}
}

func TestDaemonStatus(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status(context.Background())
	if !status.Running {
		t.Error("status should report running")
	}
	if status.PID != os.Getpid() {
		t.Errorf("PID = %d", status.PID)
	}
	if status.TrackedCount != 0 {
		t.Errorf("TrackedCount = %d, want 0", status.TrackedCount)
	}
	if status.DBPath == "" || status.LockPath == "" {
		t.Error("status should carry db and lock paths")
	}
}

func TestDaemonAcquisitionLifecycle(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.pdf")
	if err := os.WriteFile(path, []byte("invoice body"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	event := intercept.Acquisition{
		ID:             "acq-1",
		Path:           path,
		Name:           "invoice.pdf",
		DeclaredSize:   12,
		SourceLocation: "https://example.com/invoice.pdf",
	}
	if err := d.AcquisitionCreated(event); err != nil {
		t.Fatalf("AcquisitionCreated: %v", err)
	}

	// Verification resumes the item and arms the replay flag; the passive
	// source makes the replay a no-op, so the same id completes directly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && d.controller.ArmedOverrides() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if err := d.AcquisitionCreated(event); err != nil {
		t.Fatalf("replay AcquisitionCreated: %v", err)
	}
	if err := d.AcquisitionCompleted(ctx, "acq-1"); err != nil {
		t.Fatalf("AcquisitionCompleted: %v", err)
	}

	list, err := d.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("tracked %d records, want 1", len(list))
	}
	if list[0].DisplayName != "invoice.pdf" {
		t.Errorf("DisplayName = %q", list[0].DisplayName)
	}

	csv, err := d.ExportRecords(ctx)
	if err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}
	if !strings.Contains(csv, "invoice.pdf") {
		t.Errorf("export missing record, got %q", csv)
	}

	removed, count, err := d.RemoveRecord(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("RemoveRecord: %v", err)
	}
	if !removed || count != 0 {
		t.Fatalf("RemoveRecord = (%v, %d), want removed with count 0", removed, count)
	}
}

func TestDaemonClearRecords(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()

	removed, err := d.ClearRecords(ctx)
	if err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}
	if removed != 0 {
		t.Fatalf("ClearRecords removed %d from empty store", removed)
	}
}

func TestDaemonRejectsEmptyAcquisitionID(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.AcquisitionCreated(intercept.Acquisition{}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := d.AcquisitionNameKnown("", "x"); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := d.AcquisitionCompleted(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestDaemonTestNotificationUnconfigured(t *testing.T) {
	d := newTestDaemon(t)
	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("unconfigured topic must not send")
	}
	if message == "" {
		t.Fatal("expected explanatory message")
	}
}
