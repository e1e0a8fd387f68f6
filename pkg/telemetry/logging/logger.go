package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"mercator-hq/wsrelay/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain key=value text format.
	FormatText LogFormat = "text"
)

// Logger is the process logger. It embeds *slog.Logger and owns the
// rotating file sink, if one is configured.
type Logger struct {
	*slog.Logger

	// level is the minimum log level
	level slog.Level

	// format is the output format
	format LogFormat

	// file is the rotating file sink, nil when no directory is set
	file *RotatingFile
}

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// Directory enables the file sink when non-empty.
	Directory string

	// FilePrefix names the log files: <prefix>.<period>.log
	FilePrefix string

	// Rotation is "daily", "hourly" or "never".
	Rotation string

	// ConsoleOutput writes logs to Writer in addition to the file sink.
	ConsoleOutput bool

	// Writer is the console writer (defaults to os.Stdout)
	Writer io.Writer
}

// FromConfig maps the [logging] section onto a logger Config.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:         cfg.Level,
		Format:        cfg.Format,
		Directory:     cfg.Directory,
		FilePrefix:    cfg.FilePrefix,
		Rotation:      cfg.Rotation,
		ConsoleOutput: cfg.ConsoleOutput,
	}
}

// New creates a new Logger with the given configuration. Token-like
// attributes are masked before they reach any sink.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	var writers []io.Writer
	if cfg.ConsoleOutput {
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		writers = append(writers, w)
	}

	var file *RotatingFile
	if cfg.Directory != "" {
		file, err = NewRotatingFile(cfg.Directory, cfg.FilePrefix, cfg.Rotation)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: RedactAttr,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		format: format,
		file:   file,
	}, nil
}

// Level returns the minimum enabled level.
func (l *Logger) Level() slog.Level {
	return l.level
}

// Format returns the output format.
func (l *Logger) Format() LogFormat {
	return l.format
}

// Close closes the file sink.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
