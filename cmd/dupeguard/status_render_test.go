package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"dupeguard/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Engine", statusError, "stopped", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Engine:", "[ERROR] stopped")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Engine", statusOK, "pid 42", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderStatus(t *testing.T) {
	resp := &ipc.StatusResponse{
		Running:          true,
		PID:              42,
		SocketPath:       "/tmp/dupeguardd.sock",
		DBPath:           "/tmp/records.db",
		WatchEnabled:     true,
		WatchDirectory:   "/home/user/Downloads",
		TrackedCount:     3,
		PendingOverrides: 1,
		Checks: []ipc.CheckResult{
			{Name: "data directory", Passed: true, Detail: "writable"},
			{Name: "disk space", Passed: false, Detail: "below 1 GiB"},
		},
	}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	renderStatus(cmd, resp)

	rendered := out.String()
	for _, want := range []string{
		"== Daemon ==",
		"[OK] pid 42",
		"enabled (/home/user/Downloads)",
		"== Checks ==",
		"[WARN] below 1 GiB",
		"Tracked records",
		"Pending overrides",
	} {
		requireContains(t, rendered, want)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "unknown"},
		{-1, "unknown"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestShortFingerprint(t *testing.T) {
	if got := shortFingerprint(""); got != "-" {
		t.Errorf("empty fingerprint = %q", got)
	}
	if got := shortFingerprint("abcdef1234567890"); got != "abcdef123456" {
		t.Errorf("long fingerprint = %q", got)
	}
	if got := shortFingerprint("abc"); got != "abc" {
		t.Errorf("short fingerprint = %q", got)
	}
}
