package daemonrun_test

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"dockerps/internal/daemonrun"
	"dockerps/internal/ipc"
	"dockerps/internal/preflight"
	"dockerps/internal/testsupport"
)

func TestStartServesContainersFromDaemon(t *testing.T) {
	daemon := testsupport.NewFakeDaemon(t)
	daemon.Handle("GET", "/containers/json", func(_ testsupport.DaemonRequest, conn net.Conn) {
		testsupport.RespondChunked(conn, 200, `[{"Id":"abc",`, `"Names":["/web"]}]`)
	})
	cfg := testsupport.NewConfig(t, testsupport.WithDockerHost(daemon.Host()))

	rt, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	body, err := ipc.NewClient(rt.Addr().String(), time.Second).Containers(ctx)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if string(body) != `[{"Id":"abc","Names":["/web"]}]` {
		t.Fatalf("unexpected body %q", body)
	}

	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", data)
	}
	if rt.RunID() == "" {
		t.Fatal("expected run id")
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Close()

	second, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"})
	if !errors.Is(err, daemonrun.ErrAlreadyRunning) {
		if second != nil {
			second.Close()
		}
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	status, err := preflight.ProbeInstance(cfg)
	if err != nil {
		t.Fatalf("ProbeInstance: %v", err)
	}
	if !status.Running || status.PID != os.Getpid() {
		t.Fatalf("expected running instance with our pid, got %+v", status)
	}
}

func TestCloseReleasesRuntimeFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	rt, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := rt.Addr().String()
	rt.Close()
	rt.Close()

	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file to remain: %v", err)
	}
	if conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		conn.Close()
		t.Fatal("expected listener closed")
	}

	again, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"})
	if err != nil {
		t.Fatalf("restart after Close: %v", err)
	}
	again.Close()
}

func TestStartRejectsBadListenAddress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Gateway.Listen = "256.0.0.1:bad"

	if _, err := daemonrun.Start(context.Background(), cfg, daemonrun.Options{LogLevel: "error"}); err == nil {
		t.Fatal("expected listen failure")
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file cleaned up, stat err=%v", err)
	}
	status, err := preflight.ProbeInstance(cfg)
	if err != nil {
		t.Fatalf("ProbeInstance: %v", err)
	}
	if status.Running {
		t.Fatal("expected lock released after failed start")
	}
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: "error"})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(cfg.PIDPath()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("gateway never wrote its pid file")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
