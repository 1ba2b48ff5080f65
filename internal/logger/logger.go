// Package logger holds the process-wide structured logger. Every record
// carries service=wordreminder so lines from the API and the workers can be
// told apart from other services sharing a log sink.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const service = "wordreminder"

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(build(os.Stdout, "text"))
}

// Options selects verbosity, output encoding ("text" or "json") and an
// optional file that receives a copy of every line.
type Options struct {
	Level  string
	Format string
	File   string
}

// Configure replaces the process logger. Whatever part of opts is invalid is
// reported and left at its previous or default value.
func Configure(opts Options) error {
	var errs []error
	if strings.TrimSpace(opts.Level) != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			errs = append(errs, err)
		} else {
			level.Set(lvl)
		}
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", "text":
		format = "text"
	case "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", opts.Format))
		format = "text"
	}

	out, err := output(opts.File)
	if err != nil {
		errs = append(errs, err)
	}
	current.Store(build(out, format))
	return errors.Join(errs...)
}

// output tees stdout into file when one is set.
func output(file string) (io.Writer, error) {
	if strings.TrimSpace(file) == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return os.Stdout, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), nil
}

func build(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", v)
	}
}

func SetLevel(l slog.Level) { level.Set(l) }

func Level() slog.Level { return level.Level() }

func Debug(msg string, args ...any) { current.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { current.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { current.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { current.Load().Error(msg, args...) }
