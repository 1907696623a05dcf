package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dupeguard/internal/config"
	"dupeguard/internal/daemon"
	"dupeguard/internal/ipc"
	"dupeguard/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
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

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestIPCServerClient(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.NewNop()
	d, err := daemon.New(cfg, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.DataDir, "dupeguard-test.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.TrackedCount != 0 {
		t.Fatalf("expected empty collection, got %d", status.TrackedCount)
	}

	fileDir := t.TempDir()
	path := filepath.Join(fileDir, "invoice.pdf")
	if err := os.WriteFile(path, []byte("invoice body"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	created := ipc.EventCreatedRequest{
		ID:             "acq-1",
		Path:           path,
		Name:           "invoice.pdf",
		DeclaredSize:   12,
		SourceLocation: "https://example.com/invoice.pdf",
	}
	if _, err := client.EventCreated(created); err != nil {
		t.Fatalf("EventCreated failed: %v", err)
	}

	// A fresh name resumes after verification, arming the one-shot replay
	// bypass. The external integration then re-submits the same id.
	waitFor(t, func() bool {
		s, err := client.Status()
		return err == nil && s.ArmedOverrides > 0
	})
	if _, err := client.EventCreated(created); err != nil {
		t.Fatalf("replay EventCreated failed: %v", err)
	}
	if _, err := client.EventCompleted("acq-1"); err != nil {
		t.Fatalf("EventCompleted failed: %v", err)
	}

	listResp, err := client.RecordList()
	if err != nil {
		t.Fatalf("RecordList failed: %v", err)
	}
	if len(listResp.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listResp.Records))
	}
	record := listResp.Records[0]
	if record.DisplayName != "invoice.pdf" || record.Size != 12 {
		t.Fatalf("unexpected record: %#v", record)
	}

	// A second acquisition with the same name and size is blocked.
	if _, err := client.EventCreated(ipc.EventCreatedRequest{
		ID:             "acq-2",
		Path:           filepath.Join(fileDir, "invoice (1).pdf"),
		Name:           "invoice.pdf",
		DeclaredSize:   12,
		SourceLocation: "https://example.com/invoice.pdf",
	}); err != nil {
		t.Fatalf("EventCreated duplicate failed: %v", err)
	}
	waitFor(t, func() bool {
		s, err := client.Status()
		return err == nil && s.PendingOverrides == 1
	})

	pendingResp, err := client.PendingList()
	if err != nil {
		t.Fatalf("PendingList failed: %v", err)
	}
	if len(pendingResp.Items) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(pendingResp.Items))
	}
	item := pendingResp.Items[0]
	if item.OriginalID != "acq-2" || item.DisplayName != "invoice.pdf" {
		t.Fatalf("unexpected pending item: %#v", item)
	}
	if item.BlockedByRecord != record.ID {
		t.Fatalf("BlockedByRecord = %q, want %q", item.BlockedByRecord, record.ID)
	}
	if _, err := client.EventCompleted("acq-2"); err != nil {
		t.Fatalf("EventCompleted blocked failed: %v", err)
	}

	allowResp, err := client.PendingAllow("acq-2")
	if err != nil {
		t.Fatalf("PendingAllow failed: %v", err)
	}
	if allowResp.Item.OriginalID != "acq-2" {
		t.Fatalf("unexpected allow response: %#v", allowResp.Item)
	}
	pendingResp, err = client.PendingList()
	if err != nil {
		t.Fatalf("PendingList after allow failed: %v", err)
	}
	if len(pendingResp.Items) != 0 {
		t.Fatalf("expected pending list to be empty, got %d items", len(pendingResp.Items))
	}

	// The replayed duplicate completes without registering a second record.
	if _, err := client.EventCreated(ipc.EventCreatedRequest{
		ID:           "acq-2",
		Path:         path,
		Name:         "invoice.pdf",
		DeclaredSize: 12,
	}); err != nil {
		t.Fatalf("EventCreated allowed replay failed: %v", err)
	}
	if _, err := client.EventCompleted("acq-2"); err != nil {
		t.Fatalf("EventCompleted allowed replay failed: %v", err)
	}
	listResp, err = client.RecordList()
	if err != nil {
		t.Fatalf("RecordList after override failed: %v", err)
	}
	if len(listResp.Records) != 1 {
		t.Fatalf("allowed duplicate must not register, got %d records", len(listResp.Records))
	}

	exportResp, err := client.RecordExport()
	if err != nil {
		t.Fatalf("RecordExport failed: %v", err)
	}
	if !strings.Contains(exportResp.CSV, "invoice.pdf") {
		t.Fatalf("export missing record: %q", exportResp.CSV)
	}

	removeResp, err := client.RecordRemove(record.ID)
	if err != nil {
		t.Fatalf("RecordRemove failed: %v", err)
	}
	if !removeResp.Removed || removeResp.TrackedCount != 0 {
		t.Fatalf("RecordRemove = %#v", removeResp)
	}

	clearResp, err := client.RecordClear()
	if err != nil {
		t.Fatalf("RecordClear failed: %v", err)
	}
	if clearResp.Removed != 0 {
		t.Fatalf("expected nothing left to clear, got %d", clearResp.Removed)
	}

	if _, err := client.RecordRemove(""); err == nil {
		t.Fatal("empty record id must be rejected")
	}
	if _, err := client.PendingAllow(""); err == nil {
		t.Fatal("empty pending id must be rejected")
	}
	if _, err := client.PendingAllow("no-such-id"); err == nil {
		t.Fatal("unknown pending id must be rejected")
	}
	if _, err := client.EventCreated(ipc.EventCreatedRequest{}); err == nil {
		t.Fatal("empty acquisition id must be rejected")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent {
		t.Fatal("unconfigured topic must not send")
	}
	if notifyResp.Message == "" {
		t.Fatal("expected explanatory message")
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}
	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
