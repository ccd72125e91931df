package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dockerps/internal/transport"
)

//go:embed sample_config.toml
var sampleConfig string

// Gateway contains the client-facing listener settings.
type Gateway struct {
	Listen         string `toml:"listen"`
	MaxConnections int    `toml:"max_connections"`
	ReadLimit      int    `toml:"read_limit"`
	RelayBuffer    int    `toml:"relay_buffer"`
}

// Docker contains the daemon address and TLS material.
type Docker struct {
	Host           string   `toml:"host"`
	TLSVerify      bool     `toml:"tls_verify"`
	CertPath       string   `toml:"cert_path"`
	CertFile       string   `toml:"cert_file"`
	KeyFile        string   `toml:"key_file"`
	CAFile         string   `toml:"ca_file"`
	DefaultTCPPort int      `toml:"default_tcp_port"`
	DialTimeout    int      `toml:"dial_timeout"`
	ShellCommand   []string `toml:"shell_command"`
}

// Paths contains directory configuration.
type Paths struct {
	RuntimeDir string `toml:"runtime_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dockerps.
//
// Configuration sections by subsystem:
//   - Gateway: client listener, connection pool, and read/relay sizes
//   - Docker: daemon socket address, TLS flag, and certificate material
//   - Paths: runtime directory for the lock, pid, and log files
//   - Logging: log format and level
type Config struct {
	Gateway Gateway `toml:"gateway"`
	Docker  Docker  `toml:"docker"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFileName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the runtime directory used for the lock, pid, and log files.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.RuntimeDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.RuntimeDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.RuntimeDir, err)
	}
	return nil
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.RuntimeDir, "dockerps.lock")
}

// PIDPath returns the pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.RuntimeDir, "dockerps.pid")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.RuntimeDir, "dockerps.log")
}

// DialTimeoutDuration returns the daemon connect timeout as a duration.
func (d Docker) DialTimeoutDuration() time.Duration {
	return time.Duration(d.DialTimeout) * time.Second
}

// TLSEnabled reports whether connections to the daemon must be TLS-wrapped.
// TLS only applies to tcp:// hosts.
func (d Docker) TLSEnabled() bool {
	return d.TLSVerify && strings.HasPrefix(d.Host, "tcp://")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// TransportOptions converts the docker section into dialer options.
func (d Docker) TransportOptions() transport.Options {
	return transport.Options{
		Host:        d.Host,
		DefaultPort: d.DefaultTCPPort,
		DialTimeout: d.DialTimeoutDuration(),
		TLS:         d.TLSEnabled(),
		CertFile:    d.CertFile,
		KeyFile:     d.KeyFile,
		CAFile:      d.CAFile,
	}
}
