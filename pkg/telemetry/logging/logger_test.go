package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json", ConsoleOutput: true},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text", ConsoleOutput: true},
		},
		{
			name:   "defaults",
			config: Config{ConsoleOutput: true},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
		{
			name:    "invalid rotation",
			config:  Config{Level: "info", Directory: "logs", Rotation: "weekly"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.config.Writer = buf
			if tt.config.Directory != "" {
				tt.config.Directory = filepath.Join(t.TempDir(), tt.config.Directory)
			}

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				logger.Close()
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", ConsoleOutput: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("session accepted", "remote_addr", "127.0.0.1:5000")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "session accepted" {
		t.Errorf("msg = %v, want %q", record["msg"], "session accepted")
	}
	if record["remote_addr"] != "127.0.0.1:5000" {
		t.Errorf("remote_addr = %v", record["remote_addr"])
	}
}

func TestLogger_RedactsTokens(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "text", ConsoleOutput: true, Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Close()

	logger.Info("auth", "token", "supersecret-token-value", "user", "alice")

	out := buf.String()
	if strings.Contains(out, "supersecret-token-value") {
		t.Errorf("token leaked into log output: %s", out)
	}
	if !strings.Contains(out, "token=supe***") {
		t.Errorf("expected masked token in output: %s", out)
	}
	if !strings.Contains(out, "user=alice") {
		t.Errorf("expected user in output: %s", out)
	}
}

func TestLogger_FileSink(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Directory: dir, FilePrefix: "relay", Rotation: RotateNever})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "relay.log"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("file sink missing record: %s", data)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:         "warn",
		Format:        "text",
		Directory:     "logs",
		FilePrefix:    "p",
		Rotation:      "hourly",
		ConsoleOutput: true,
	}
	got := FromConfig(cfg)
	if got.Level != "warn" || got.Format != "text" || got.Directory != "logs" ||
		got.FilePrefix != "p" || got.Rotation != "hourly" || !got.ConsoleOutput {
		t.Errorf("FromConfig() = %+v", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRotatingFile_Rotates(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, "wsrelay", RotateHourly)
	if err != nil {
		t.Fatalf("NewRotatingFile() error = %v", err)
	}
	defer rf.Close()

	base := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	rf.now = func() time.Time { return base }
	if _, err := rf.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	first := rf.Path()

	rf.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := rf.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	second := rf.Path()

	if first == second {
		t.Fatalf("expected a new file after the hour changed, both %s", first)
	}
	if filepath.Base(first) != "wsrelay.2024-05-01-10.log" {
		t.Errorf("first file = %s", filepath.Base(first))
	}
	if filepath.Base(second) != "wsrelay.2024-05-01-11.log" {
		t.Errorf("second file = %s", filepath.Base(second))
	}

	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second\n" {
		t.Errorf("second file content = %q", data)
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := NewRotatingFile(t.TempDir(), "wsrelay", RotateNever)
	if err != nil {
		t.Fatalf("NewRotatingFile() error = %v", err)
	}
	rf.Close()

	if _, err := rf.Write([]byte("x")); err == nil {
		t.Error("Write() after Close expected error")
	}
}
