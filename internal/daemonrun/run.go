package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dockerps/internal/config"
	"dockerps/internal/dockerapi"
	"dockerps/internal/gateway"
	"dockerps/internal/logging"
	"dockerps/internal/preflight"
	"dockerps/internal/transport"
)

// ErrAlreadyRunning is returned when another gateway holds the runtime lock.
var ErrAlreadyRunning = errors.New("another dockerps gateway instance is already running")

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Runtime is a started gateway process: the instance lock, pid file, and
// listening server.
type Runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *flock.Flock
	pidPath string
	server  *gateway.Server
	runID   string
}

// Run starts the gateway and blocks until SIGINT, SIGTERM, or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := Start(signalCtx, cfg, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	<-signalCtx.Done()
	rt.logger.Info("dockerps gateway shutting down",
		logging.String(logging.FieldEventType, "gateway_shutdown"))
	return nil
}

// Start acquires the instance lock, initializes logging, and begins serving
// gateway connections. Callers must Close the returned runtime.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	rt := &Runtime{cfg: cfg, lock: lock, runID: uuid.NewString()}
	if err := rt.start(ctx, opts); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) start(ctx context.Context, opts Options) error {
	logCfg := *rt.cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	if opts.Development {
		logCfg.Logging.Level = "debug"
	}
	logger, err := logging.NewFromConfig(&logCfg, rt.runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.logger = logger

	rt.pidPath = rt.cfg.PIDPath()
	if err := writePIDFile(rt.pidPath); err != nil {
		rt.pidPath = ""
		return fmt.Errorf("write pid file: %w", err)
	}

	dialer, err := transport.New(rt.cfg.Docker.TransportOptions())
	if err != nil {
		return fmt.Errorf("configure docker transport: %w", err)
	}
	client := dockerapi.NewClient(dialer,
		dockerapi.WithLogger(logger),
		dockerapi.WithShellCommand(rt.cfg.Docker.ShellCommand),
	)

	logPreflight(ctx, logger, rt.cfg, client)

	server, err := gateway.NewServer(ctx, rt.cfg.Gateway, client, logger)
	if err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	rt.server = server
	server.Serve()

	logger.Info("dockerps gateway started",
		logging.String("listen", server.Addr().String()),
		logging.String("docker_host", dialer.Endpoint().String()),
		logging.Bool("tls", dialer.TLS()),
		logging.String("lock_path", rt.cfg.LockPath()),
		logging.String(logging.FieldEventType, "gateway_started"),
	)
	return nil
}

// Addr returns the gateway listener address.
func (rt *Runtime) Addr() net.Addr {
	if rt.server == nil {
		return nil
	}
	return rt.server.Addr()
}

// RunID returns the run id stamped on every log record of this run.
func (rt *Runtime) RunID() string {
	return rt.runID
}

// Close stops the gateway, removes the pid file, and releases the lock.
func (rt *Runtime) Close() {
	if rt.server != nil {
		rt.server.Close()
		rt.server = nil
	}
	if rt.pidPath != "" {
		_ = os.Remove(rt.pidPath)
		rt.pidPath = ""
	}
	if rt.lock != nil {
		if err := rt.lock.Unlock(); err != nil && rt.logger != nil {
			rt.logger.Warn("failed to release gateway lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file manually if the next start is refused"),
			)
		}
		rt.lock = nil
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, pinger preflight.Pinger) {
	for _, result := range preflight.RunAll(ctx, cfg, pinger) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "verify docker.host and that the daemon is running"),
			logging.String(logging.FieldImpact, "container requests will fail until the daemon is reachable"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
