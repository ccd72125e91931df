package main

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"dockerps/internal/daemonrun"
	"dockerps/internal/testsupport"
)

func TestCheckReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected failed checks")
	}
	requireContains(t, err.Error(), "checks failed")
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Docker host:")
	requireContains(t, out, "Docker socket:")
	requireContains(t, out, "[ERROR]")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected uncolored output for a buffer, got %q", out)
	}
}

func TestCheckPassesAgainstDaemon(t *testing.T) {
	daemon := testsupport.NewFakeDaemon(t)
	daemon.Handle("GET", "/_ping", func(_ testsupport.DaemonRequest, conn net.Conn) {
		testsupport.RespondJSON(conn, 200, "OK")
	})
	env := setupCLITestEnv(t, testsupport.WithDockerHost(daemon.Host()))

	out, _, err := runCLI(t, []string{"check"}, env.configPath, "")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Docker daemon:")
	requireContains(t, out, "[OK] Reachable")
}

func TestStatusReportsRunningGateway(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "unreachable")

	rt, err := daemonrun.Start(context.Background(), env.cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("daemonrun.Start: %v", err)
	}
	defer rt.Close()

	out, _, err = runCLI(t, []string{"status", "--addr", rt.Addr().String()}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "[OK] "+rt.Addr().String())
}

func TestContainersAgainstRunningGateway(t *testing.T) {
	daemon := testsupport.NewFakeDaemon(t)
	daemon.Handle("GET", "/containers/json", func(_ testsupport.DaemonRequest, conn net.Conn) {
		testsupport.RespondJSON(conn, 200, listing)
	})
	env := setupCLITestEnv(t, testsupport.WithDockerHost(daemon.Host()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt, err := daemonrun.Start(ctx, env.cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("daemonrun.Start: %v", err)
	}
	defer rt.Close()

	out, _, err := runCLI(t, []string{"containers", "--addr", rt.Addr().String()}, env.configPath, "")
	if err != nil {
		t.Fatalf("containers: %v", err)
	}
	requireContains(t, out, "web, api")
	requireContains(t, out, "Running")
}
