package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"dupeguard/internal/daemon"
	"dupeguard/internal/intercept"
	"dupeguard/internal/logging"
	"dupeguard/internal/records"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Dupeguard", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "ipc")
}

func convertRecord(record records.FileRecord) Record {
	return Record{
		ID:             record.ID,
		DisplayName:    record.DisplayName,
		NormalizedName: record.Normalized(),
		Size:           record.Size,
		StoragePath:    record.StoragePath,
		SourceLocation: record.SourceLocation,
		Fingerprint:    record.Fingerprint,
		RegisteredAt:   record.RegisteredAt,
	}
}

func convertPending(descriptor intercept.PendingOverride) PendingItem {
	return PendingItem{
		OriginalID:      descriptor.OriginalID,
		DisplayName:     descriptor.DisplayName,
		SourceLocation:  descriptor.SourceLocation,
		BlockedByRecord: descriptor.BlockedByRecord,
		MatchBasis:      descriptor.MatchBasis,
		BlockedAt:       descriptor.BlockedAt,
	}
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("engine start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "engine started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("engine stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockPath
	resp.SocketPath = status.SocketPath
	resp.TrackedCount = status.TrackedCount
	resp.ActiveAcquisitions = status.ActiveAcquisitions
	resp.PendingOverrides = status.PendingOverrides
	resp.ArmedOverrides = status.ArmedOverrides
	resp.WatchEnabled = status.WatchEnabled
	resp.WatchDirectory = status.WatchDirectory
	resp.Checks = make([]CheckResult, 0, len(status.Checks))
	for _, check := range status.Checks {
		resp.Checks = append(resp.Checks, CheckResult{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	return nil
}

func (s *service) RecordList(_ RecordListRequest, resp *RecordListResponse) error {
	list, err := s.daemon.ListRecords(s.ctx)
	if err != nil {
		return err
	}
	resp.Records = make([]Record, 0, len(list))
	for _, record := range list {
		resp.Records = append(resp.Records, convertRecord(record))
	}
	return nil
}

func (s *service) RecordRemove(req RecordRemoveRequest, resp *RecordRemoveResponse) error {
	if req.ID == "" {
		return errors.New("record remove requires an id")
	}
	removed, count, err := s.daemon.RemoveRecord(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Removed = removed
	resp.TrackedCount = count
	return nil
}

func (s *service) RecordClear(_ RecordClearRequest, resp *RecordClearResponse) error {
	removed, err := s.daemon.ClearRecords(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) RecordExport(_ RecordExportRequest, resp *RecordExportResponse) error {
	csv, err := s.daemon.ExportRecords(s.ctx)
	if err != nil {
		return err
	}
	resp.CSV = csv
	return nil
}

func (s *service) PendingList(_ PendingListRequest, resp *PendingListResponse) error {
	pending := s.daemon.PendingOverrides()
	resp.Items = make([]PendingItem, 0, len(pending))
	for _, descriptor := range pending {
		resp.Items = append(resp.Items, convertPending(descriptor))
	}
	return nil
}

func (s *service) PendingAllow(req PendingAllowRequest, resp *PendingAllowResponse) error {
	if req.ID == "" {
		return errors.New("pending allow requires an id")
	}
	descriptor, err := s.daemon.AllowAnyway(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = convertPending(descriptor)
	s.log().Info("proceed-anyway accepted via IPC",
		logging.String(logging.FieldEventType, "override_accepted"),
		logging.String(logging.FieldAcquisitionID, req.ID))
	return nil
}

func (s *service) EventCreated(req EventCreatedRequest, resp *EventResponse) error {
	err := s.daemon.AcquisitionCreated(intercept.Acquisition{
		ID:             req.ID,
		Path:           req.Path,
		Name:           req.Name,
		DeclaredSize:   req.DeclaredSize,
		SourceLocation: req.SourceLocation,
	})
	if err != nil {
		return err
	}
	resp.Accepted = true
	return nil
}

func (s *service) EventNameKnown(req EventNameKnownRequest, resp *EventResponse) error {
	if err := s.daemon.AcquisitionNameKnown(req.ID, req.Name); err != nil {
		return err
	}
	resp.Accepted = true
	return nil
}

func (s *service) EventCompleted(req EventCompletedRequest, resp *EventResponse) error {
	if err := s.daemon.AcquisitionCompleted(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Accepted = true
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
