package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"dockerps/internal/transport"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateDocker(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGateway() error {
	_, port, err := net.SplitHostPort(c.Gateway.Listen)
	if err != nil {
		return fmt.Errorf("gateway.listen %q must be host:port: %w", c.Gateway.Listen, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("gateway.listen %q has an invalid port", c.Gateway.Listen)
	}
	if err := ensurePositiveMap(map[string]int{
		"gateway.max_connections": c.Gateway.MaxConnections,
		"gateway.read_limit":      c.Gateway.ReadLimit,
		"gateway.relay_buffer":    c.Gateway.RelayBuffer,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDocker() error {
	if _, err := transport.ParseEndpoint(c.Docker.Host, c.Docker.DefaultTCPPort); err != nil {
		return fmt.Errorf("docker.host: %w", err)
	}
	if err := ensurePositiveMap(map[string]int{
		"docker.default_tcp_port": c.Docker.DefaultTCPPort,
		"docker.dial_timeout":     c.Docker.DialTimeout,
	}); err != nil {
		return err
	}
	if !c.Docker.TLSEnabled() {
		return nil
	}
	if c.Docker.CertPath == "" && (c.Docker.CertFile == "" || c.Docker.KeyFile == "" || c.Docker.CAFile == "") {
		return errors.New("docker.cert_path (or DOCKER_CERT_PATH) must be set when docker.tls_verify is true")
	}
	for key, path := range map[string]string{
		"docker.cert_file": c.Docker.CertFile,
		"docker.key_file":  c.Docker.KeyFile,
		"docker.ca_file":   c.Docker.CAFile,
	} {
		if path == "" {
			return fmt.Errorf("%s must be set when docker.tls_verify is true", key)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s: %q is a directory", key, path)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
