package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// ErrMissingTLSMaterial is returned when TLS is requested without a full
// certificate, key, and CA set.
var ErrMissingTLSMaterial = errors.New("tls requires cert, key, and ca files")

const defaultDialTimeout = 10 * time.Second

// Options configures a Dialer.
type Options struct {
	Host        string
	DefaultPort int
	DialTimeout time.Duration

	TLS      bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// Dialer opens connections to a single daemon endpoint.
type Dialer struct {
	endpoint  Endpoint
	timeout   time.Duration
	tlsConfig *tls.Config
}

// New resolves the endpoint and loads TLS material. TLS is only applied to
// tcp endpoints.
func New(opts Options) (*Dialer, error) {
	endpoint, err := ParseEndpoint(opts.Host, opts.DefaultPort)
	if err != nil {
		return nil, err
	}
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	d := &Dialer{endpoint: endpoint, timeout: timeout}
	if opts.TLS && endpoint.Network == "tcp" {
		cfg, err := buildTLSConfig(opts.CertFile, opts.KeyFile, opts.CAFile)
		if err != nil {
			return nil, err
		}
		host := endpoint.Address
		if h, _, splitErr := net.SplitHostPort(endpoint.Address); splitErr == nil {
			host = h
		}
		cfg.ServerName = host
		d.tlsConfig = cfg
	}
	return d, nil
}

// Endpoint returns the resolved daemon address.
func (d *Dialer) Endpoint() Endpoint {
	return d.endpoint
}

// TLS reports whether connections are TLS-wrapped.
func (d *Dialer) TLS() bool {
	return d.tlsConfig != nil
}

// Dial opens a new connection to the daemon, completing the TLS handshake
// when configured.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.timeout}
	conn, err := dialer.DialContext(ctx, d.endpoint.Network, d.endpoint.Address)
	if err != nil {
		return nil, fmt.Errorf("connect to docker daemon at %s: %w", d.endpoint, err)
	}
	if d.tlsConfig == nil {
		return conn, nil
	}

	tlsConn := tls.Client(conn, d.tlsConfig)
	handshakeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", d.endpoint, err)
	}
	return tlsConn, nil
}

func buildTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	if strings.TrimSpace(certFile) == "" || strings.TrimSpace(keyFile) == "" || strings.TrimSpace(caFile) == "" {
		return nil, ErrMissingTLSMaterial
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("parse CA certificate %s", caFile)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
