package testsupport

import (
	"path/filepath"
	"testing"

	"dockerps/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique runtime directory per test,
// a loopback listener on an ephemeral port, and a docker host that points at
// a socket nobody listens on. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RuntimeDir = filepath.Join(base, "run")
	cfgVal.Gateway.Listen = "127.0.0.1:0"
	cfgVal.Docker.Host = "unix://" + filepath.Join(base, "docker.sock")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDockerHost points the config at host.
func WithDockerHost(host string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Docker.Host = host
	}
}

// WithMaxConnections overrides the gateway slot count.
func WithMaxConnections(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gateway.MaxConnections = n
	}
}

// WithTLSMaterial enables TLS and writes placeholder cert, key, and CA files
// under the test directory.
func WithTLSMaterial() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "certs")
		WriteTLSMaterial(b.t, dir)
		b.cfg.Docker.TLSVerify = true
		b.cfg.Docker.CertPath = dir
		b.cfg.Docker.CertFile = filepath.Join(dir, "cert.pem")
		b.cfg.Docker.KeyFile = filepath.Join(dir, "key.pem")
		b.cfg.Docker.CAFile = filepath.Join(dir, "ca.pem")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RuntimeDir)
}
