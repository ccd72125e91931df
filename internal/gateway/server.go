package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"dockerps/internal/config"
	"dockerps/internal/ipc"
	"dockerps/internal/logging"
	"dockerps/internal/relay"
)

// Backend performs daemon operations on behalf of clients.
type Backend interface {
	ListContainers(ctx context.Context) ([]byte, error)
	OpenShell(ctx context.Context, containerID string) (net.Conn, error)
}

const (
	trailerWriteTimeout = 5 * time.Second
	maxAcceptBackoff    = time.Second
)

// Server is the client-facing TCP listener.
type Server struct {
	cfg      config.Gateway
	backend  Backend
	logger   *slog.Logger
	listener net.Listener
	slots    *semaphore.Weighted
	active   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the listener described by cfg.
func NewServer(ctx context.Context, cfg config.Gateway, backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("gateway requires a backend")
	}
	if cfg.MaxConnections <= 0 {
		return nil, fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = ipc.MaxRequestSize
	}
	if cfg.RelayBuffer <= 0 {
		cfg.RelayBuffer = relay.DefaultBufferSize
	}
	logger = logging.NewComponentLogger(logger, "gateway")

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		cfg:      cfg,
		backend:  backend,
		logger:   logger,
		listener: listener,
		slots:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Active returns the number of connections currently holding a slot.
func (s *Server) Active() int64 {
	return s.active.Load()
}

// Serve starts accepting connections until Close is called or the parent
// context is canceled.
func (s *Server) Serve() {
	s.logger.Info("gateway listening",
		logging.String("listen", s.listener.Addr().String()),
		logging.Int("max_connections", s.cfg.MaxConnections),
		logging.String(logging.FieldEventType, "gateway_listening"))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
}

func (s *Server) acceptLoop() {
	var backoff time.Duration
	for {
		if err := s.slots.Acquire(s.ctx, 1); err != nil {
			return
		}
		conn, err := s.listener.Accept()
		if err != nil {
			s.slots.Release(1)
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = nextBackoff(backoff)
			logging.WarnWithContext(s.logger, "accept failed", "gateway_accept_failed",
				logging.Error(err),
				logging.Duration("retry_in", backoff),
				logging.String(logging.FieldImpact, "new clients wait until accept recovers"),
				logging.String(logging.FieldErrorHint, "check the open file limit and network state"))
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return
			}
			continue
		}
		backoff = 0
		s.active.Add(1)
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer s.slots.Release(1)
			defer s.active.Add(-1)
			s.handle(c)
		}(conn)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	current *= 2
	if current > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return current
}

// Close stops accepting, ends running sessions, and waits for handlers.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	s.logger.Info("gateway stopped", logging.String(logging.FieldEventType, "gateway_stopped"))
}

// handle serves one connection and always finishes with the trailer.
func (s *Server) handle(conn net.Conn) {
	ctx := logging.WithCorrelationID(s.ctx, uuid.NewString())
	ctx = logging.WithRemoteAddr(ctx, conn.RemoteAddr().String())
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("connection accepted")

	// Shutdown unblocks a client that never sends its request.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer s.finish(conn, logger)

	buf := make([]byte, s.cfg.ReadLimit)
	n, err := conn.Read(buf)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		logger.Debug("request read failed", logging.Error(err))
		return
	}

	cmd, err := ipc.ParseCommand(buf[:n])
	if msg := ipc.UsageMessage(err); msg != "" {
		logger.Info("rejected request",
			logging.String("reason", msg),
			logging.String(logging.FieldEventType, "gateway_usage_error"))
		s.write(conn, logger, msg)
		return
	}

	ctx = logging.WithTask(ctx, cmd.Task)
	logger = logging.WithContext(ctx, s.logger)

	switch cmd.Task {
	case ipc.TaskContainers:
		s.serveContainers(ctx, conn, logger)
	case ipc.TaskShell:
		s.serveShell(ctx, conn, cmd.Arg, logger)
	}
}

func (s *Server) serveContainers(ctx context.Context, conn net.Conn, logger *slog.Logger) {
	body, err := s.backend.ListContainers(ctx)
	if err != nil {
		s.fail(conn, logger, "container listing failed", err)
		return
	}
	logger.Debug("containers listed", logging.Int("body_bytes", len(body)))
	s.writeBytes(conn, logger, body)
}

func (s *Server) serveShell(ctx context.Context, conn net.Conn, containerID string, logger *slog.Logger) {
	logger = logger.With(logging.String(logging.FieldContainerID, containerID))
	stream, err := s.backend.OpenShell(ctx, containerID)
	if err != nil {
		s.fail(conn, logger, "shell session failed", err)
		return
	}
	logger.Info("shell session started", logging.String(logging.FieldEventType, "shell_started"))

	stats, err := relay.Relay(ctx, conn, stream,
		relay.WithBufferSize(s.cfg.RelayBuffer),
		relay.WithLogger(logger))
	attrs := []logging.Attr{
		logging.String("ended_by", string(stats.EndedBy)),
		logging.Int64("client_bytes", stats.ClientBytes),
		logging.Int64("daemon_bytes", stats.DaemonBytes),
		logging.Duration("relay_duration", stats.Duration),
		logging.String(logging.FieldEventType, "shell_finished"),
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		attrs = append(attrs, logging.Error(err))
	}
	logger.Info("shell session finished", logging.Args(attrs...)...)
}

func (s *Server) fail(conn net.Conn, logger *slog.Logger, msg string, err error) {
	logging.WarnWithContext(logger, msg, "gateway_backend_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "client received an error reply"),
		logging.String(logging.FieldErrorHint, "run dockerps check to verify daemon connectivity"))
	s.write(conn, logger, ipc.FailureMessage(err))
}

func (s *Server) write(conn net.Conn, logger *slog.Logger, msg string) {
	s.writeBytes(conn, logger, []byte(msg))
}

func (s *Server) writeBytes(conn net.Conn, logger *slog.Logger, data []byte) {
	if len(data) == 0 {
		return
	}
	if _, err := conn.Write(data); err != nil {
		logger.Debug("reply write failed", logging.Error(err))
	}
}

// finish clears any deadline left by the relay, writes the trailer, and
// closes conn.
func (s *Server) finish(conn net.Conn, logger *slog.Logger) {
	_ = conn.SetDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Now().Add(trailerWriteTimeout))
	if _, err := io.WriteString(conn, ipc.Trailer); err != nil {
		logger.Debug("trailer write failed", logging.Error(err))
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("close failed", logging.Error(err))
	}
	logger.Debug("connection closed")
}
