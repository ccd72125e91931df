package preflight

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

	"golang.org/x/sys/unix"

	"dockerps/internal/dockerapi"
)

const daemonCheckTimeout = 5 * time.Second

// Pinger is the daemon surface CheckDaemon needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type versioner interface {
	Version(ctx context.Context) (dockerapi.VersionInfo, error)
}

// CheckDaemon verifies that the daemon answers GET /_ping. When the pinger
// can also report the daemon version it is included in the detail.
func CheckDaemon(ctx context.Context, pinger Pinger) Result {
	const name = "Docker daemon"

	checkCtx, cancel := context.WithTimeout(ctx, daemonCheckTimeout)
	defer cancel()

	if err := pinger.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeDaemonError(err)}
	}
	v, ok := pinger.(versioner)
	if !ok {
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
	info, err := v.Version(checkCtx)
	if err != nil || info.Version == "" {
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (Docker %s, API %s, %s/%s)", info.Version, info.APIVersion, info.OS, info.Arch)}
}

// CheckSocketAccess verifies that path is a unix socket the current user can
// read and write.
func CheckSocketAccess(path string) Result {
	const name = "Docker socket"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeSocket == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a socket)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTLSMaterial verifies that the client certificate, key, and CA bundle
// are readable and parse.
func CheckTLSMaterial(certFile, keyFile, caFile string) Result {
	const name = "TLS material"
	for _, path := range []string{certFile, keyFile, caFile} {
		if strings.TrimSpace(path) == "" {
			return Result{Name: name, Detail: "cert, key, and ca files are required when tls_verify is set"}
		}
		if err := unix.Access(path, unix.R_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
	}
	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client key pair: %v", err)}
	}
	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", caFile, err)}
	}
	if !x509.NewCertPool().AppendCertsFromPEM(caPEM) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no certificates found)", caFile)}
	}
	return Result{Name: name, Passed: true, Detail: "cert, key, and ca loaded"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeDaemonError produces a human-readable summary for daemon check failures.
func summarizeDaemonError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "ping timed out (daemon unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ping timed out (daemon unreachable)"
	}
	var statusErr *dockerapi.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("ping rejected (status %d)", statusErr.StatusCode)
	}
	return err.Error()
}
