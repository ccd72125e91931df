package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedScheme is returned for hosts that are neither unix:// nor tcp://.
var ErrUnsupportedScheme = errors.New("docker host must use unix:// or tcp://")

const (
	unixScheme = "unix://"
	tcpScheme  = "tcp://"

	defaultTCPHost = "127.0.0.1"
)

// Endpoint is a resolved daemon address.
type Endpoint struct {
	Network string
	Address string
}

func (e Endpoint) String() string {
	return e.Network + "://" + e.Address
}

// ParseEndpoint resolves a docker host string. A tcp host without a port uses
// defaultPort.
func ParseEndpoint(host string, defaultPort int) (Endpoint, error) {
	host = strings.TrimSpace(host)
	switch {
	case strings.HasPrefix(host, unixScheme):
		path := strings.TrimPrefix(host, unixScheme)
		if path == "" {
			return Endpoint{}, fmt.Errorf("invalid unix socket address %q: empty path", host)
		}
		return Endpoint{Network: "unix", Address: path}, nil
	case strings.HasPrefix(host, tcpScheme):
		return parseTCP(strings.TrimPrefix(host, tcpScheme), defaultPort)
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, host)
	}
}

func parseTCP(addr string, defaultPort int) (Endpoint, error) {
	addr = strings.TrimSuffix(addr, "/")
	if addr == "" {
		return Endpoint{}, errors.New("invalid bind address format: empty tcp address")
	}
	if !strings.Contains(addr, ":") {
		if defaultPort <= 0 {
			return Endpoint{}, fmt.Errorf("invalid bind address format: %s has no port", addr)
		}
		return Endpoint{Network: "tcp", Address: joinHostPort(addr, defaultPort)}, nil
	}

	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return Endpoint{}, fmt.Errorf("invalid bind address format: %s", addr)
	}
	host := parts[0]
	if host == "" {
		host = defaultTCPHost
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("invalid port: %s", addr)
	}
	return Endpoint{Network: "tcp", Address: joinHostPort(host, port)}, nil
}

func joinHostPort(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
