package testsupport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// DaemonRequest is one request observed by a FakeDaemon.
type DaemonRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// DaemonHandler answers a request. conn reads any bytes the client sent
// after the request, so exec handlers can treat it as the attached stream.
type DaemonHandler func(req DaemonRequest, conn net.Conn)

// FakeDaemon is a scripted Docker daemon listening on a unix socket.
type FakeDaemon struct {
	listener net.Listener
	path     string

	mu       sync.Mutex
	handlers map[string]DaemonHandler
	requests []DaemonRequest

	wg sync.WaitGroup
}

// NewFakeDaemon starts a daemon that answers unknown routes with 404.
func NewFakeDaemon(t testing.TB) *FakeDaemon {
	t.Helper()

	path := filepath.Join(ShortTempDir(t), "docker.sock")
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	d := &FakeDaemon{
		listener: listener,
		path:     path,
		handlers: make(map[string]DaemonHandler),
	}
	d.wg.Add(1)
	go d.serve()
	t.Cleanup(d.Close)
	return d
}

// Host returns the DOCKER_HOST style address of the daemon.
func (d *FakeDaemon) Host() string {
	return "unix://" + d.path
}

// SocketPath returns the socket file path.
func (d *FakeDaemon) SocketPath() string {
	return d.path
}

// Handle registers h for method and path.
func (d *FakeDaemon) Handle(method, path string, h DaemonHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method+" "+path] = h
}

// Requests returns the requests seen so far.
func (d *FakeDaemon) Requests() []DaemonRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DaemonRequest(nil), d.requests...)
}

// Close stops the listener and waits for in-flight handlers.
func (d *FakeDaemon) Close() {
	_ = d.listener.Close()
	d.wg.Wait()
}

func (d *FakeDaemon) serve() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer conn.Close()
			d.serveConn(conn)
		}()
	}
}

func (d *FakeDaemon) serveConn(conn net.Conn) {
	reader := bufio.NewReader(conn)
	httpReq, err := http.ReadRequest(reader)
	if err != nil {
		return
	}
	body, err := io.ReadAll(httpReq.Body)
	if err != nil {
		return
	}
	req := DaemonRequest{
		Method:      httpReq.Method,
		Path:        httpReq.URL.Path,
		ContentType: httpReq.Header.Get("Content-Type"),
		Body:        body,
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	handler := d.handlers[req.Method+" "+req.Path]
	d.mu.Unlock()

	if handler == nil {
		RespondJSON(conn, 404, fmt.Sprintf(`{"message":"page not found: %s %s"}`, req.Method, req.Path))
		return
	}
	handler(req, &bufferedConn{Conn: conn, r: reader})
}

type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// RespondJSON writes a Content-Length framed JSON response.
func RespondJSON(w io.Writer, status int, body string) {
	fmt.Fprintf(w, "HTTP/1.1 %d %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		status, http.StatusText(status), len(body), body)
}

// RespondChunked writes a chunked JSON response with one chunk per element.
func RespondChunked(w io.Writer, status int, chunks ...string) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\nContent-Type: application/json\r\nTransfer-Encoding: chunked\r\n\r\n",
		status, http.StatusText(status))
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "%x\r\n%s\r\n", len(chunk), chunk)
	}
	b.WriteString("0\r\n\r\n")
	_, _ = io.WriteString(w, b.String())
}

// ExecCreated answers an exec create request with execID.
func ExecCreated(execID string) DaemonHandler {
	return func(_ DaemonRequest, conn net.Conn) {
		RespondJSON(conn, 201, fmt.Sprintf(`{"Id":%q}`, execID))
	}
}

// ExecEcho answers an exec start request by writing banner on the raw stream
// and then echoing input until the client closes or "exit\n" arrives.
func ExecEcho(banner string) DaemonHandler {
	return func(_ DaemonRequest, conn net.Conn) {
		_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Type: application/vnd.docker.raw-stream\r\n\r\n"+banner)
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if strings.Contains(string(buf[:n]), "exit\n") {
					return
				}
				if _, werr := conn.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}
