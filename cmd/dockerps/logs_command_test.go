package main

import (
	"os"
	"strings"
	"testing"
)

func TestLogsFormatsAndFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.RuntimeDir, 0o755); err != nil {
		t.Fatalf("mkdir runtime dir: %v", err)
	}
	content := strings.Join([]string{
		`{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"gateway listening","component":"gateway"}`,
		`{"ts":"2026-03-01T10:00:02Z","level":"warn","msg":"daemon request failed","component":"gateway","correlation_id":"0123456789ab"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(env.cfg.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "gateway listening")
	requireContains(t, out, "conn 01234567 – daemon request failed")

	out, _, err = runCLI(t, []string{"logs", "--level", "warn", "--raw"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs --level: %v", err)
	}
	if strings.Contains(out, "gateway listening") || !strings.HasPrefix(out, `{"ts"`) {
		t.Fatalf("unexpected filtered output %q", out)
	}
}

func TestLogsWithoutFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "No log entries available\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
