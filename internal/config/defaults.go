package config

const (
	defaultListen          = "0.0.0.0:6728"
	defaultMaxConnections  = 10000
	defaultReadLimit       = 1024
	defaultRelayBuffer     = 128
	defaultDockerHost      = "unix:///var/run/docker.sock"
	defaultDockerTCPPort   = 2376
	defaultDialTimeout     = 10
	defaultRuntimeDir      = "~/.local/share/dockerps"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultCertFileName    = "cert.pem"
	defaultKeyFileName     = "key.pem"
	defaultCAFileName      = "ca.pem"
	defaultConfigPath      = "~/.config/dockerps/config.toml"
	projectConfigFileName  = "dockerps.toml"
	defaultShellExecutable = "/bin/bash"
)

// Default returns a Config populated with repository defaults. The docker host
// and listen address are left empty so environment fallbacks can be applied
// during normalization.
func Default() Config {
	return Config{
		Gateway: Gateway{
			MaxConnections: defaultMaxConnections,
			ReadLimit:      defaultReadLimit,
			RelayBuffer:    defaultRelayBuffer,
		},
		Docker: Docker{
			DefaultTCPPort: defaultDockerTCPPort,
			DialTimeout:    defaultDialTimeout,
			ShellCommand:   []string{defaultShellExecutable},
		},
		Paths: Paths{
			RuntimeDir: defaultRuntimeDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
