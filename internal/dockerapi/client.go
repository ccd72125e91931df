package dockerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"dockerps/internal/logging"
)

// Dialer opens a fresh daemon connection per exchange.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// DialFunc adapts a function to Dialer.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Dial calls f.
func (f DialFunc) Dial(ctx context.Context) (net.Conn, error) { return f(ctx) }

var defaultShellCommand = []string{"/bin/bash"}

// Client issues requests against the daemon.
type Client struct {
	dialer       Dialer
	logger       *slog.Logger
	shellCommand []string
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger attaches a logger for per-exchange debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithShellCommand sets the command executed by OpenShell.
func WithShellCommand(cmd []string) Option {
	return func(c *Client) {
		if len(cmd) > 0 {
			c.shellCommand = append([]string(nil), cmd...)
		}
	}
}

// NewClient constructs a client around dialer.
func NewClient(dialer Dialer, opts ...Option) *Client {
	c := &Client{
		dialer:       dialer,
		logger:       logging.NewNop(),
		shellCommand: defaultShellCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "dockerapi")
	return c
}

// Do performs one exchange and closes the connection. Non-success statuses
// are returned as *StatusError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, conn, err := c.exchange(ctx, req)
	if conn != nil {
		_ = conn.Close()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Hijack performs one exchange and, on success, returns the live connection
// to the caller, who becomes responsible for closing it.
func (c *Client) Hijack(ctx context.Context, req Request) (*Response, net.Conn, error) {
	resp, conn, err := c.exchange(ctx, req)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, nil, err
	}
	return resp, conn, nil
}

func (c *Client) exchange(ctx context.Context, req Request) (*Response, net.Conn, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Unblock socket I/O if ctx ends mid-exchange.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	resp, rest, err := c.roundTrip(conn, req)
	if !stop() {
		if err == nil {
			err = ctx.Err()
		}
		return nil, conn, err
	}
	if err != nil {
		return nil, conn, err
	}

	c.logger.Debug("daemon exchange",
		logging.String("method", req.Method),
		logging.String("path", req.Path),
		logging.Int("status", resp.StatusCode),
		logging.Int("body_bytes", len(resp.Body)),
		logging.Bool("degraded", resp.Degraded),
	)
	if resp.Degraded {
		logging.WarnWithContext(c.logger, "chunked body decode failed", "docker_chunk_decode_failed",
			logging.String("path", req.Path),
			logging.Error(resp.DecodeErr),
			logging.String(logging.FieldImpact, "response body is incomplete"),
		)
	}
	if !resp.Success() {
		return nil, conn, &StatusError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
		}
	}
	return resp, newHijackedConn(conn, rest), nil
}

func (c *Client) roundTrip(conn net.Conn, req Request) (*Response, []byte, error) {
	if _, err := req.WriteTo(conn); err != nil {
		return nil, nil, fmt.Errorf("send %s %s: %w", req.Method, req.Path, err)
	}
	resp, rest, err := readResponse(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp, rest, nil
}

// ListContainers returns the raw JSON array from GET /containers/json.
func (c *Client) ListContainers(ctx context.Context) ([]byte, error) {
	params, err := json.Marshal(listParams{All: 1})
	if err != nil {
		return nil, fmt.Errorf("encode list params: %w", err)
	}
	req, err := NewRequest("GET", "/containers/json", params)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CreateExec creates an exec context attached to stdin, stdout, and stderr
// with a pseudo-terminal, returning its id.
func (c *Client) CreateExec(ctx context.Context, containerID string, cmd []string) (string, error) {
	containerID = strings.TrimSpace(containerID)
	if containerID == "" {
		return "", errors.New("container id is required")
	}
	if len(cmd) == 0 {
		cmd = c.shellCommand
	}
	payload, err := json.Marshal(execConfig{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
		Cmd:          cmd,
		Container:    containerID,
	})
	if err != nil {
		return "", fmt.Errorf("encode exec config: %w", err)
	}
	req, err := NewRequest("POST", "/containers/"+url.PathEscape(containerID)+"/exec", payload)
	if err != nil {
		return "", err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create exec: %w", err)
	}
	id := gjson.GetBytes(resp.Body, "Id").String()
	if id == "" {
		return "", fmt.Errorf("create exec: response has no Id: %q", resp.Body)
	}
	return id, nil
}

// StartExec starts an exec context attached with a pseudo-terminal and
// returns the daemon-side stream.
func (c *Client) StartExec(ctx context.Context, execID string) (net.Conn, error) {
	payload, err := json.Marshal(execStartConfig{Detach: false, Tty: true})
	if err != nil {
		return nil, fmt.Errorf("encode exec start: %w", err)
	}
	req, err := NewRequest("POST", "/exec/"+url.PathEscape(execID)+"/start", payload)
	if err != nil {
		return nil, err
	}
	_, conn, err := c.Hijack(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start exec: %w", err)
	}
	return conn, nil
}

// OpenShell creates and starts an interactive exec in containerID.
func (c *Client) OpenShell(ctx context.Context, containerID string) (net.Conn, error) {
	execID, err := c.CreateExec(ctx, containerID, nil)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("exec created",
		logging.String("container_id", containerID),
		logging.String("exec_id", execID),
	)
	return c.StartExec(ctx, execID)
}

// Ping checks that the daemon answers GET /_ping.
func (c *Client) Ping(ctx context.Context) error {
	req, err := NewRequest("GET", "/_ping", nil)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// VersionInfo is the subset of GET /version used for diagnostics.
type VersionInfo struct {
	Version    string
	APIVersion string
	OS         string
	Arch       string
}

// Version returns the daemon version summary.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	req, err := NewRequest("GET", "/version", nil)
	if err != nil {
		return VersionInfo{}, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return VersionInfo{}, err
	}
	fields := gjson.GetManyBytes(resp.Body, "Version", "ApiVersion", "Os", "Arch")
	return VersionInfo{
		Version:    fields[0].String(),
		APIVersion: fields[1].String(),
		OS:         fields[2].String(),
		Arch:       fields[3].String(),
	}, nil
}

type listParams struct {
	All int `json:"all"`
}

type execConfig struct {
	AttachStdin  bool     `json:"AttachStdin"`
	AttachStdout bool     `json:"AttachStdout"`
	AttachStderr bool     `json:"AttachStderr"`
	Tty          bool     `json:"Tty"`
	Cmd          []string `json:"Cmd"`
	Container    string   `json:"Container"`
}

type execStartConfig struct {
	Detach bool `json:"Detach"`
	Tty    bool `json:"Tty"`
}
