package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultDialTimeout = 5 * time.Second

// ReplyError carries a text reply the gateway sent instead of task output.
type ReplyError struct {
	Message string
}

func (e *ReplyError) Error() string {
	return "gateway: " + e.Message
}

// Client talks to a gateway at a fixed address.
type Client struct {
	addr        string
	dialTimeout time.Duration
}

// NewClient returns a client for the gateway listening on addr.
func NewClient(addr string, dialTimeout time.Duration) *Client {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &Client{addr: addr, dialTimeout: dialTimeout}
}

// Addr returns the gateway address.
func (c *Client) Addr() string {
	return c.addr
}

// Send dials the gateway and writes cmd. The caller owns the returned
// connection.
func (c *Client) Send(ctx context.Context, cmd Command) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("connect to gateway %s: %w", c.addr, err)
	}
	if _, err := io.WriteString(conn, cmd.String()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send %s: %w", cmd.Task, err)
	}
	return conn, nil
}

// Do sends cmd and returns the full reply without its trailer.
func (c *Client) Do(ctx context.Context, cmd Command) ([]byte, error) {
	conn, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	reply, err := ReadReply(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return reply, err
	}
	return reply, nil
}

// Containers returns the daemon's container listing as raw JSON.
func (c *Client) Containers(ctx context.Context) ([]byte, error) {
	reply, err := c.Do(ctx, Containers())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(reply) {
		return nil, &ReplyError{Message: strings.TrimSpace(string(reply))}
	}
	return reply, nil
}

// Shell opens an interactive session for containerID. Everything read from
// the returned connection is session output followed by the trailer.
func (c *Client) Shell(ctx context.Context, containerID string) (net.Conn, error) {
	cmd := Shell(containerID)
	if cmd.Arg == "" {
		return nil, ErrMissingContainerID
	}
	return c.Send(ctx, cmd)
}
