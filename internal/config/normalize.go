package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGateway()
	if err := c.normalizeDocker(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RuntimeDir) == "" {
		c.Paths.RuntimeDir = defaultRuntimeDir
	}
	if c.Paths.RuntimeDir, err = expandPath(c.Paths.RuntimeDir); err != nil {
		return fmt.Errorf("paths.runtime_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGateway() {
	c.Gateway.Listen = strings.TrimSpace(c.Gateway.Listen)
	if c.Gateway.Listen == "" {
		if value, ok := os.LookupEnv("DOCKERPS_LISTEN"); ok {
			c.Gateway.Listen = strings.TrimSpace(value)
		}
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = defaultListen
	}
}

func (c *Config) normalizeDocker() error {
	c.Docker.Host = strings.TrimSpace(c.Docker.Host)
	if c.Docker.Host == "" {
		if value, ok := os.LookupEnv("DOCKER_HOST"); ok {
			c.Docker.Host = strings.TrimSpace(value)
		}
	}
	if c.Docker.Host == "" {
		c.Docker.Host = defaultDockerHost
	}

	if !c.Docker.TLSVerify && os.Getenv("DOCKER_TLS_VERIFY") == "1" {
		c.Docker.TLSVerify = true
	}

	c.Docker.CertPath = strings.TrimSpace(c.Docker.CertPath)
	if c.Docker.CertPath == "" {
		if value, ok := os.LookupEnv("DOCKER_CERT_PATH"); ok {
			c.Docker.CertPath = strings.TrimSpace(value)
		}
	}

	var err error
	if c.Docker.CertPath, err = expandPath(c.Docker.CertPath); err != nil {
		return fmt.Errorf("docker.cert_path: %w", err)
	}
	if c.Docker.CertFile, err = c.materialPath(c.Docker.CertFile, defaultCertFileName); err != nil {
		return fmt.Errorf("docker.cert_file: %w", err)
	}
	if c.Docker.KeyFile, err = c.materialPath(c.Docker.KeyFile, defaultKeyFileName); err != nil {
		return fmt.Errorf("docker.key_file: %w", err)
	}
	if c.Docker.CAFile, err = c.materialPath(c.Docker.CAFile, defaultCAFileName); err != nil {
		return fmt.Errorf("docker.ca_file: %w", err)
	}

	if c.Docker.DefaultTCPPort == 0 {
		c.Docker.DefaultTCPPort = defaultDockerTCPPort
	}
	if c.Docker.DialTimeout == 0 {
		c.Docker.DialTimeout = defaultDialTimeout
	}

	command := make([]string, 0, len(c.Docker.ShellCommand))
	for _, arg := range c.Docker.ShellCommand {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	if len(command) == 0 {
		command = []string{defaultShellExecutable}
	}
	c.Docker.ShellCommand = command
	return nil
}

// materialPath resolves an explicit TLS file, falling back to name inside cert_path.
func (c *Config) materialPath(explicit, name string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return expandPath(explicit)
	}
	if c.Docker.CertPath == "" {
		return "", nil
	}
	return filepath.Join(c.Docker.CertPath, name), nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
