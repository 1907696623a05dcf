package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dupeguard/internal/config"
)

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyDuplicateBlocked(context.Background(), "a.pdf", "/d/a.pdf"); err != nil {
		t.Fatalf("noop should never error: %v", err)
	}
}

func newRecordingServer(t *testing.T) (*httptest.Server, *[]*http.Request, *[]string) {
	t.Helper()
	var requests []*http.Request
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, r.Clone(context.Background()))
		bodies = append(bodies, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests, &bodies
}

func serviceFor(topic string) *ntfyService {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Blocked = true
	cfg.Notifications.Overrides = true
	cfg.Notifications.Errors = true
	return NewService(&cfg).(*ntfyService)
}

func TestNotifyDuplicateBlockedSendsTitleAndPath(t *testing.T) {
	server, requests, bodies := newRecordingServer(t)
	service := serviceFor(server.URL)

	if err := service.NotifyDuplicateBlocked(context.Background(), "report.pdf", "/downloads/report.pdf"); err != nil {
		t.Fatalf("NotifyDuplicateBlocked: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if got := req.Header.Get("Title"); got != "Dupeguard - Duplicate Blocked" {
		t.Errorf("Title header = %q", got)
	}
	if got := req.Header.Get("Priority"); got != "high" {
		t.Errorf("Priority header = %q", got)
	}
	body := (*bodies)[0]
	if want := "Existing file: /downloads/report.pdf"; !strings.Contains(body, want) {
		t.Errorf("body %q missing %q", body, want)
	}
}

func TestNotifyRespectsToggles(t *testing.T) {
	server, requests, _ := newRecordingServer(t)
	service := serviceFor(server.URL)
	service.blocked = false
	service.overrides = false
	service.errors = false

	ctx := context.Background()
	if err := service.NotifyDuplicateBlocked(ctx, "a", "b"); err != nil {
		t.Fatalf("NotifyDuplicateBlocked: %v", err)
	}
	if err := service.NotifyOverrideUsed(ctx, "a"); err != nil {
		t.Fatalf("NotifyOverrideUsed: %v", err)
	}
	if err := service.NotifyError(ctx, errors.New("boom"), "test"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("disabled toggles must not send, got %d requests", len(*requests))
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	service := serviceFor(server.URL)
	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
