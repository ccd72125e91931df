package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"dockerps/internal/logging"
)

// DefaultBufferSize is the per-read chunk size for each direction.
const DefaultBufferSize = 128

// Side names the endpoint whose pump ended the session first.
type Side string

const (
	// SideClient means the client stopped sending or its connection failed.
	SideClient Side = "client"
	// SideDaemon means the container's exec stream ended or failed.
	SideDaemon Side = "daemon"
	// SideContext means the caller's context was cancelled.
	SideContext Side = "context"
)

// Stats summarizes a finished session.
type Stats struct {
	// ClientBytes counts bytes forwarded from the client to the daemon.
	ClientBytes int64
	// DaemonBytes counts bytes forwarded from the daemon to the client.
	DaemonBytes int64
	Duration    time.Duration
	EndedBy     Side
}

type options struct {
	bufferSize int
	logger     *slog.Logger
}

// Option customizes Relay.
type Option func(*options)

// WithBufferSize overrides DefaultBufferSize. Non-positive sizes are ignored.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithLogger attaches a logger for per-direction debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// session owns the shared teardown state of one Relay call.
type session struct {
	client io.ReadWriteCloser
	daemon io.ReadWriteCloser

	once    sync.Once
	done    chan struct{}
	endedBy Side
}

// deadliner is implemented by net.Conn and pollable files.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// finish records the first side to end and tears down both pumps: the
// daemon stream is closed, the client is interrupted through an expired
// deadline so the caller can still write its trailer, or closed when it has
// no deadline support. It reports whether this call was the first; later
// calls are no-ops.
func (s *session) finish(side Side) bool {
	first := false
	s.once.Do(func() {
		first = true
		s.endedBy = side
		close(s.done)
		_ = s.daemon.Close()
		if d, ok := s.client.(deadliner); ok {
			if d.SetDeadline(time.Unix(1, 0)) == nil {
				return
			}
		}
		_ = s.client.Close()
	})
	return first
}

// firstErr returns err only when side is the one that ended the session.
// Errors from the other pumps are side effects of the teardown.
func (s *session) firstErr(side Side, err error) error {
	if s.finish(side) {
		return err
	}
	return nil
}

// Relay copies client→daemon and daemon→client concurrently and returns once
// both directions have stopped. The daemon stream is always closed on return.
// A client that supports deadlines is left open with an expired deadline;
// callers reset it before writing. A side finishing with EOF is a normal end
// and yields a nil error; cancellation of ctx ends the session with ctx.Err().
func Relay(ctx context.Context, client, daemon io.ReadWriteCloser, opts ...Option) (Stats, error) {
	cfg := options{bufferSize: DefaultBufferSize, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &session{client: client, daemon: daemon, done: make(chan struct{})}
	var clientBytes, daemonBytes atomic.Int64
	start := time.Now()

	var g errgroup.Group
	g.Go(func() error {
		return s.firstErr(SideClient, pump(daemon, client, cfg.bufferSize, &clientBytes))
	})
	g.Go(func() error {
		return s.firstErr(SideDaemon, pump(client, daemon, cfg.bufferSize, &daemonBytes))
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return s.firstErr(SideContext, ctx.Err())
		case <-s.done:
			return nil
		}
	})
	err := g.Wait()

	stats := Stats{
		ClientBytes: clientBytes.Load(),
		DaemonBytes: daemonBytes.Load(),
		Duration:    time.Since(start),
		EndedBy:     s.endedBy,
	}
	cfg.logger.Debug("relay finished",
		logging.String("ended_by", string(stats.EndedBy)),
		logging.Int64("client_bytes", stats.ClientBytes),
		logging.Int64("daemon_bytes", stats.DaemonBytes),
		logging.Duration("relay_duration", stats.Duration),
	)
	return stats, normalizeErr(err)
}

// pump forwards src to dst in reads of at most size bytes until src or dst
// fails.
func pump(dst io.Writer, src io.Reader, size int, counter *atomic.Int64) error {
	buf := make([]byte, size)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, writeErr := dst.Write(buf[:n])
			counter.Add(int64(written))
			if writeErr != nil {
				return writeErr
			}
			if written != n {
				return io.ErrShortWrite
			}
		}
		if readErr != nil {
			return readErr
		}
	}
}

// normalizeErr maps the ways a peer can hang up to a clean end.
func normalizeErr(err error) error {
	switch {
	case err == nil,
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed):
		return nil
	default:
		return err
	}
}
