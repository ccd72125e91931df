package main

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"dockerps/internal/ipc"
)

const listing = `[{"Id":"abc123def4567890","Image":"nginx:latest","State":"running","Status":"Up 2 hours","Names":["/web","/api"]},` +
	`{"Id":"ffee00","Image":"redis","State":"exited","Status":"Exited (0) 3 days ago","Names":["/cache"]}]`

func replyWith(body string) func(net.Conn) {
	return func(conn net.Conn) {
		if !readCommand(conn, "containers:") {
			return
		}
		_, _ = io.WriteString(conn, body+ipc.Trailer)
	}
}

func TestContainersRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)
	addr := fakeGateway(t, replyWith(listing))

	out, _, err := runCLI(t, []string{"containers", "--addr", addr}, env.configPath, "")
	if err != nil {
		t.Fatalf("containers: %v", err)
	}
	for _, want := range []string{"ID", "abc123def456", "nginx:latest", "Running", "Up 2 hours", "web, api", "Exited", "cache"} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "abc123def4567890") {
		t.Fatalf("expected short ids, got %q", out)
	}
}

func TestContainersQuietAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	addr := fakeGateway(t, replyWith(listing))

	out, _, err := runCLI(t, []string{"ps", "-q", "--addr", addr}, env.configPath, "")
	if err != nil {
		t.Fatalf("containers -q: %v", err)
	}
	if out != "abc123def456\nffee00\n" {
		t.Fatalf("unexpected quiet output %q", out)
	}

	out, _, err = runCLI(t, []string{"containers", "--json", "--addr", addr}, env.configPath, "")
	if err != nil {
		t.Fatalf("containers --json: %v", err)
	}
	requireContains(t, out, "\"Id\": \"abc123def4567890\"")
	requireContains(t, out, "\n  {")
}

func TestContainersEmptyListing(t *testing.T) {
	env := setupCLITestEnv(t)
	addr := fakeGateway(t, replyWith("[]"))

	out, _, err := runCLI(t, []string{"containers", "--addr", addr}, env.configPath, "")
	if err != nil {
		t.Fatalf("containers: %v", err)
	}
	if out != "No containers\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestContainersSurfacesGatewayError(t *testing.T) {
	env := setupCLITestEnv(t)
	addr := fakeGateway(t, replyWith("Error: dial unix /var/run/docker.sock: connect: permission denied"))

	_, _, err := runCLI(t, []string{"containers", "--addr", addr}, env.configPath, "")
	var replyErr *ipc.ReplyError
	if !errors.As(err, &replyErr) {
		t.Fatalf("expected ReplyError, got %v", err)
	}
	requireContains(t, replyErr.Message, "permission denied")
}

func TestContainersConnectionRefused(t *testing.T) {
	env := setupCLITestEnv(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	_, _, err = runCLI(t, []string{"containers", "--addr", addr}, env.configPath, "")
	if err == nil {
		t.Fatal("expected dial failure")
	}
	requireContains(t, err.Error(), "dockerps serve")
}

func TestContainerRowsTolerateMissingFields(t *testing.T) {
	rows := containerRows([]byte(`[{"Id":"x"},{"Names":["/only-name"]}]`))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "x" || rows[0][4] != "" {
		t.Fatalf("unexpected first row %q", rows[0])
	}
	if rows[1][4] != "only-name" {
		t.Fatalf("unexpected names %q", rows[1][4])
	}
}

func TestDialableAddr(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:6728":   "127.0.0.1:6728",
		":6728":          "127.0.0.1:6728",
		"[::]:6728":      "127.0.0.1:6728",
		"10.1.2.3:7000":  "10.1.2.3:7000",
		"not-an-address": "not-an-address",
	}
	for in, want := range cases {
		if got := dialableAddr(in); got != want {
			t.Errorf("dialableAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
