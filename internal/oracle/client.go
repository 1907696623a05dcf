package oracle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"dupeguard/internal/config"
	"dupeguard/internal/logging"
)

// ErrUnavailable marks every failure on the fingerprint path. Callers treat it
// as "no fingerprint", never as a reason to block an acquisition.
var ErrUnavailable = errors.New("fingerprint oracle unavailable")

var commandContext = exec.CommandContext

// Client computes content fingerprints for files on disk.
type Client interface {
	Fingerprint(ctx context.Context, path string) (string, error)
	Close() error
}

// Func adapts a function to the Client interface. Used by tests.
type Func func(ctx context.Context, path string) (string, error)

func (f Func) Fingerprint(ctx context.Context, path string) (string, error) { return f(ctx, path) }

func (f Func) Close() error { return nil }

// Process manages the external hashing helper as a long-lived subprocess and
// speaks the length-prefixed JSON protocol over its stdin/stdout.
//
// Requests are serialized: the protocol has no correlation ids, so at most one
// request may be in flight. A broken pipe tears the helper down; the next
// request starts a fresh one.
type Process struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	cancel context.CancelFunc
}

// NewProcess constructs a helper-backed client from configuration.
func NewProcess(cfg *config.Config, logger *slog.Logger) *Process {
	timeout := time.Duration(cfg.Oracle.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Process{
		command: cfg.Oracle.Command,
		args:    append([]string(nil), cfg.Oracle.Args...),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "oracle"),
	}
}

// Fingerprint asks the helper for the content hash of path. Every failure,
// including timeouts and helper-reported errors, is wrapped in ErrUnavailable.
func (p *Process) Fingerprint(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty file path", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStartedLocked(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	hash, err := p.roundTripLocked(ctx, path)
	if err != nil {
		// The stream may be desynchronized after any failure, so the
		// helper is restarted on the next request.
		p.stopLocked()
		p.logger.Warn("fingerprint request failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "oracle_request_failed"),
			logging.String("file_path", path),
			logging.String(logging.FieldImpact, "verification continues without a fingerprint"),
		)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return hash, nil
}

func (p *Process) roundTripLocked(ctx context.Context, path string) (string, error) {
	type result struct {
		hash string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		if err := writeFrame(p.stdin, request{FilePath: path}); err != nil {
			done <- result{err: err}
			return
		}
		var resp response
		if err := readFrame(p.stdout, &resp); err != nil {
			done <- result{err: err}
			return
		}
		if resp.Error != "" {
			done <- result{err: fmt.Errorf("helper error: %s", resp.Error)}
			return
		}
		if resp.Hash == "" {
			done <- result{err: errors.New("helper returned empty hash")}
			return
		}
		done <- result{hash: resp.Hash}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.hash, res.err
	}
}

func (p *Process) ensureStartedLocked() error {
	if p.cmd != nil {
		return nil
	}
	if strings.TrimSpace(p.command) == "" {
		return errors.New("helper command not configured")
	}

	// The process outlives individual request contexts.
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := commandContext(procCtx, p.command, p.args...) //nolint:gosec

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start helper: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.cancel = cancel
	p.logger.Info("fingerprint helper started",
		logging.String("command", p.command),
		logging.String(logging.FieldEventType, "oracle_started"),
	)
	return nil
}

func (p *Process) stopLocked() {
	if p.cmd == nil {
		return
	}
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	if p.cancel != nil {
		p.cancel()
	}
	_ = p.cmd.Wait()
	p.cmd = nil
	p.stdin = nil
	p.stdout = nil
	p.cancel = nil
}

// Close terminates the helper process if one is running.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

var _ Client = (*Process)(nil)
