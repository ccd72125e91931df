package preflight

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"dockerps/internal/config"
)

// InstanceStatus reports whether a gateway currently holds the runtime lock.
type InstanceStatus struct {
	Running bool
	PID     int
}

// ProbeInstance tries the single-instance lock without keeping it. A lock
// held elsewhere means a gateway is running; its pid is read from the pid
// file when available.
func ProbeInstance(cfg *config.Config) (InstanceStatus, error) {
	lockPath := cfg.LockPath()
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return InstanceStatus{}, nil
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return InstanceStatus{}, fmt.Errorf("probe lock %s: %w", lockPath, err)
	}
	if locked {
		_ = lock.Unlock()
		return InstanceStatus{}, nil
	}
	status := InstanceStatus{Running: true}
	if data, err := os.ReadFile(cfg.PIDPath()); err == nil {
		if pid, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil {
			status.PID = pid
		}
	}
	return status, nil
}

// Detail renders a display-friendly summary for status output.
func (s InstanceStatus) Detail() string {
	switch {
	case !s.Running:
		return "Not running"
	case s.PID > 0:
		return fmt.Sprintf("Running (pid %d)", s.PID)
	default:
		return "Running"
	}
}
