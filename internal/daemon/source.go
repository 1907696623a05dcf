package daemon

import (
	"context"
	"log/slog"

	"dupeguard/internal/logging"
)

// passiveSource backs the directory-watcher event source. Files observed on
// disk cannot be cancelled at their origin, so suspension is a successful
// no-op: verification runs post-hoc and a duplicate manifests as a pending
// prompt plus skipped registration rather than a stopped transfer. An
// acquisition subsystem that can actually suspend and replay plugs in its own
// Source over IPC-driven integrations.
type passiveSource struct {
	logger *slog.Logger
}

func newPassiveSource(logger *slog.Logger) *passiveSource {
	return &passiveSource{logger: logging.NewComponentLogger(logger, "source")}
}

func (s *passiveSource) Suspend(_ context.Context, id string) error {
	s.logger.Debug("suspend is a no-op for watched files",
		logging.String(logging.FieldAcquisitionID, id))
	return nil
}

func (s *passiveSource) Replay(_ context.Context, sourceLocation, filename string) error {
	s.logger.Debug("replay is a no-op for watched files",
		logging.String("source_location", sourceLocation),
		logging.String("filename", filename))
	return nil
}
