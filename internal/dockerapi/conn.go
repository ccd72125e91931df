package dockerapi

import "net"

// hijackedConn replays bytes that arrived with the response header before
// reading from the socket again.
type hijackedConn struct {
	net.Conn
	pending []byte
}

func newHijackedConn(conn net.Conn, pending []byte) net.Conn {
	if len(pending) == 0 {
		return conn
	}
	return &hijackedConn{Conn: conn, pending: append([]byte(nil), pending...)}
}

func (c *hijackedConn) Read(p []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(p, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}
	return c.Conn.Read(p)
}
