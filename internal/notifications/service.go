package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dupeguard/internal/config"
)

const userAgent = "Dupeguard/0.1.0"

// Service defines the notification surface exposed to engine components.
type Service interface {
	NotifyDuplicateBlocked(ctx context.Context, filename, existingPath string) error
	NotifyOverrideUsed(ctx context.Context, filename string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		blocked:   cfg.Notifications.Blocked,
		overrides: cfg.Notifications.Overrides,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	blocked   bool
	overrides bool
	errors    bool
}

func (n *ntfyService) NotifyDuplicateBlocked(ctx context.Context, filename, existingPath string) error {
	if !n.blocked {
		return nil
	}
	filename = strings.TrimSpace(filename)
	message := fmt.Sprintf("Duplicate blocked: %s", filename)
	if existingPath = strings.TrimSpace(existingPath); existingPath != "" {
		message = fmt.Sprintf("%s\nExisting file: %s", message, existingPath)
	}
	data := payload{
		title:    "Dupeguard - Duplicate Blocked",
		message:  message,
		tags:     []string{"dupeguard", "duplicate", "blocked"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOverrideUsed(ctx context.Context, filename string) error {
	if !n.overrides {
		return nil
	}
	data := payload{
		title:   "Dupeguard - Download Allowed",
		message: fmt.Sprintf("Proceed-anyway used for: %s", strings.TrimSpace(filename)),
		tags:    []string{"dupeguard", "override"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Dupeguard - Error",
		message:  builder.String(),
		tags:     []string{"dupeguard", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Dupeguard - Test",
		message:  "Notification system test",
		tags:     []string{"dupeguard", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDuplicateBlocked(context.Context, string, string) error { return nil }
func (noopService) NotifyOverrideUsed(context.Context, string) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
