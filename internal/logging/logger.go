// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config selects level, format and destination for log output.
type Config struct {
	Level  string `env:"LEVEL" yaml:"level"`
	Format string `env:"FORMAT" yaml:"format"`
	// File redirects output to a file. "-" discards everything.
	File string `env:"FILE" yaml:"file"`
}

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	closer        io.Closer
)

// Init installs the logger described by cfg as the slog default.
// Output goes to w unless cfg.File is set.
func Init(cfg Config, w io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	out := w
	var c io.Closer
	switch cfg.File {
	case "":
	case "-":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out, c = f, f
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	if closer != nil {
		closer.Close()
	}
	closer = c
	defaultLogger = slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "calctutor")}))
	slog.SetDefault(defaultLogger)
	return nil
}

// Close releases the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// Logger returns the configured logger, or slog's default before Init.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

// NewModuleLogger returns a logger tagged with module and component.
func NewModuleLogger(module, component string) *slog.Logger {
	return Logger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
