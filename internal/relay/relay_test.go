package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type endpoints struct {
	user       net.Conn // gateway client
	gatewayIn  net.Conn // gateway side of the client connection
	gatewayOut net.Conn // gateway side of the daemon stream
	container  net.Conn // daemon end of the exec stream
}

func newEndpoints(t *testing.T) endpoints {
	t.Helper()
	user, gatewayIn := net.Pipe()
	gatewayOut, container := net.Pipe()
	t.Cleanup(func() {
		user.Close()
		gatewayIn.Close()
		container.Close()
	})
	return endpoints{user: user, gatewayIn: gatewayIn, gatewayOut: gatewayOut, container: container}
}

type result struct {
	stats Stats
	err   error
}

func startRelay(ctx context.Context, e endpoints, opts ...Option) <-chan result {
	out := make(chan result, 1)
	go func() {
		stats, err := Relay(ctx, e.gatewayIn, e.gatewayOut, opts...)
		out <- result{stats: stats, err: err}
	}()
	return out
}

func waitResult(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
		return result{}
	}
}

func TestRelayForwardsBothDirections(t *testing.T) {
	e := newEndpoints(t)
	done := startRelay(context.Background(), e)

	if _, err := e.user.Write([]byte("ls\n")); err != nil {
		t.Fatalf("user write: %v", err)
	}
	got := make([]byte, 3)
	if _, err := io.ReadFull(e.container, got); err != nil {
		t.Fatalf("container read: %v", err)
	}
	if string(got) != "ls\n" {
		t.Fatalf("container received %q", got)
	}

	if _, err := e.container.Write([]byte("file.txt\r\n")); err != nil {
		t.Fatalf("container write: %v", err)
	}
	got = make([]byte, 10)
	if _, err := io.ReadFull(e.user, got); err != nil {
		t.Fatalf("user read: %v", err)
	}
	if string(got) != "file.txt\r\n" {
		t.Fatalf("user received %q", got)
	}

	e.container.Close()
	r := waitResult(t, done)
	if r.err != nil {
		t.Fatalf("Relay returned error: %v", r.err)
	}
	if r.stats.EndedBy != SideDaemon {
		t.Fatalf("expected daemon to end the session, got %q", r.stats.EndedBy)
	}
	if r.stats.ClientBytes != 3 || r.stats.DaemonBytes != 10 {
		t.Fatalf("unexpected stats %+v", r.stats)
	}
}

func TestRelayDaemonEndKeepsClientWritable(t *testing.T) {
	e := newEndpoints(t)
	done := startRelay(context.Background(), e)

	e.container.Close()
	waitResult(t, done)

	if err := e.gatewayIn.SetDeadline(time.Time{}); err != nil {
		t.Fatalf("reset deadline: %v", err)
	}
	go func() {
		_, _ = e.gatewayIn.Write([]byte("\r\n\r\n"))
		e.gatewayIn.Close()
	}()
	got, err := io.ReadAll(e.user)
	if err != nil {
		t.Fatalf("read trailer: %v", err)
	}
	if string(got) != "\r\n\r\n" {
		t.Fatalf("expected trailer after session, got %q", got)
	}
}

func TestRelayClientEndClosesDaemon(t *testing.T) {
	e := newEndpoints(t)
	done := startRelay(context.Background(), e)

	e.user.Close()
	r := waitResult(t, done)
	if r.stats.EndedBy != SideClient {
		t.Fatalf("expected client to end the session, got %q", r.stats.EndedBy)
	}
	if _, err := e.container.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected daemon stream to be closed, got %v", err)
	}
}

func TestRelayPreservesOrderAcrossSmallReads(t *testing.T) {
	e := newEndpoints(t)
	done := startRelay(context.Background(), e, WithBufferSize(7))

	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	go func() {
		_, _ = e.container.Write(payload)
		e.container.Close()
	}()

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(e.user, got); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload corrupted: got %d bytes", len(got))
	}
	r := waitResult(t, done)
	if r.stats.DaemonBytes != int64(len(payload)) {
		t.Fatalf("unexpected daemon byte count %d", r.stats.DaemonBytes)
	}
}

type recordingReader struct {
	r     io.Reader
	sizes []int
}

func (r *recordingReader) Read(p []byte) (int, error) {
	r.sizes = append(r.sizes, len(p))
	return r.r.Read(p)
}

func TestPumpReadsAtMostBufferSize(t *testing.T) {
	src := &recordingReader{r: bytes.NewReader(bytes.Repeat([]byte("x"), 1000))}
	var dst bytes.Buffer
	var counter atomic.Int64
	err := pump(&dst, src, DefaultBufferSize, &counter)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	for _, size := range src.sizes {
		if size != DefaultBufferSize {
			t.Fatalf("read requested %d bytes, want %d", size, DefaultBufferSize)
		}
	}
	if dst.Len() != 1000 || counter.Load() != 1000 {
		t.Fatalf("forwarded %d bytes, counted %d", dst.Len(), counter.Load())
	}
}

func TestRelayContextCancel(t *testing.T) {
	e := newEndpoints(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := startRelay(ctx, e)

	cancel()
	r := waitResult(t, done)
	if !errors.Is(r.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", r.err)
	}
	if r.stats.EndedBy != SideContext {
		t.Fatalf("expected context to end the session, got %q", r.stats.EndedBy)
	}
	if _, err := e.container.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected daemon stream to be closed, got %v", err)
	}
}

func TestRelayReportsWriteFailure(t *testing.T) {
	user, gatewayIn := net.Pipe()
	defer user.Close()
	failing := newFailingStream(errors.New("broken pipe"))

	done := make(chan error, 1)
	go func() {
		_, err := Relay(context.Background(), gatewayIn, failing)
		done <- err
	}()

	if _, err := user.Write([]byte("x")); err != nil {
		t.Fatalf("user write: %v", err)
	}
	select {
	case err := <-done:
		if err == nil || err.Error() != "broken pipe" {
			t.Fatalf("expected broken pipe, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
	}
}

func TestRelayIgnoresTeardownErrorsOfTheOtherSide(t *testing.T) {
	user, gatewayIn := net.Pipe()
	defer user.Close()
	defer gatewayIn.Close()
	reset := errors.New("connection reset by peer")

	done := make(chan result, 1)
	go func() {
		stats, err := Relay(context.Background(), gatewayIn, resetStream{err: reset})
		done <- result{stats: stats, err: err}
	}()

	r := waitResult(t, done)
	if !errors.Is(r.err, reset) {
		t.Fatalf("expected the daemon error, got %v", r.err)
	}
	if r.stats.EndedBy != SideDaemon {
		t.Fatalf("expected daemon to end the session, got %q", r.stats.EndedBy)
	}
}

// resetStream fails every read immediately.
type resetStream struct{ err error }

func (r resetStream) Read([]byte) (int, error)    { return 0, r.err }
func (r resetStream) Write(p []byte) (int, error) { return len(p), nil }
func (r resetStream) Close() error                { return nil }

// failingStream blocks reads until closed and rejects every write.
type failingStream struct {
	err       error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFailingStream(err error) *failingStream {
	return &failingStream{err: err, closed: make(chan struct{})}
}

func (f *failingStream) Read(p []byte) (int, error) {
	<-f.closed
	return 0, io.EOF
}

func (f *failingStream) Write(p []byte) (int, error) { return 0, f.err }

func (f *failingStream) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}
