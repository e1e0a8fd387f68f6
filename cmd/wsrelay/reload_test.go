package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/cli"
	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/reload"
)

func TestResolvePIDFile(t *testing.T) {
	useConfig(t, writeConfigFile(t, `
users:
  - name: alice
    token: tok-alice
server:
  enable_tls: false
  pid_file: /run/wsrelay-test.pid
`))

	got, err := resolvePIDFile("")
	if err != nil {
		t.Fatalf("resolvePIDFile failed: %v", err)
	}
	if got != "/run/wsrelay-test.pid" {
		t.Errorf("expected PID file from config, got %q", got)
	}

	got, err = resolvePIDFile("override.pid")
	if err != nil {
		t.Fatalf("resolvePIDFile failed: %v", err)
	}
	if got != "override.pid" {
		t.Errorf("expected flag value, got %q", got)
	}
}

func TestReloadCommand_MissingPIDFile(t *testing.T) {
	orig := reloadFlags
	t.Cleanup(func() { reloadFlags = orig })
	reloadFlags.pidFile = filepath.Join(t.TempDir(), "absent.pid")

	err := reloadServer(reloadCmd, nil)
	var reloadErr *cli.ReloadError
	if !errors.As(err, &reloadErr) {
		t.Fatalf("expected *cli.ReloadError, got %v", err)
	}
}

func TestReloadCommand_SignalsProcess(t *testing.T) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	t.Cleanup(func() { signal.Stop(hup) })

	pidFile := filepath.Join(t.TempDir(), "wsrelay.pid")
	remove, err := cli.WritePIDFile(pidFile)
	if err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}
	t.Cleanup(remove)

	orig := reloadFlags
	t.Cleanup(func() { reloadFlags = orig })
	reloadFlags.pidFile = pidFile

	var buf bytes.Buffer
	reloadCmd.SetOut(&buf)
	if err := reloadServer(reloadCmd, nil); err != nil {
		t.Fatalf("reloadServer failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Reload signal sent") {
		t.Errorf("unexpected output %q", buf.String())
	}

	select {
	case <-hup:
	case <-time.After(5 * time.Second):
		t.Fatal("SIGHUP not delivered")
	}
}

func TestPrepareReload_SignalAfterPIDFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.PIDFile = filepath.Join(t.TempDir(), "wsrelay.pid")
	cfg.Reload.WatchFile = false

	sources, remove, err := prepareReload(cfg, slog.Default())
	if err != nil {
		t.Fatalf("prepareReload failed: %v", err)
	}
	t.Cleanup(remove)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}

	// Signal before anything reads the source; the process must survive.
	if err := cli.SignalReload(cfg.Server.PIDFile); err != nil {
		t.Fatalf("SignalReload failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := make(chan reload.Event, 1)
	go sources[0].Run(ctx, events)

	select {
	case ev := <-events:
		if ev.Source != "signal" {
			t.Errorf("event source = %q, want signal", ev.Source)
		}
	case <-ctx.Done():
		t.Fatal("SIGHUP not delivered as a reload event")
	}
}
