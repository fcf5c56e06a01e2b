package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	// level is shared by every handler rebuild, so SetLevel never has to
	// swap the handler out from under concurrent writers.
	level = new(slog.LevelVar)

	mu      sync.RWMutex
	format  string    = "text"
	output  io.Writer = os.Stdout
	logFile *os.File
	color   bool
	base    *slog.Logger
)

func init() {
	color = isTerminal(os.Stdout.Fd())
	rebuild()
}

// ParseLevel maps a level name (case-insensitive) to its slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// rebuild swaps in a handler for the current format and output.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = newTextHandler(output, opts, color)
	}
	base = slog.New(contextHandler{h})
}

// Init configures the logger. Output can be "stdout", "stderr", or a file
// path opened in append mode. Empty fields keep their current setting.
func Init(cfg Config) error {
	if cfg.Output != "" {
		var w io.Writer
		var f *os.File
		var useColor bool

		switch strings.ToLower(cfg.Output) {
		case "stdout":
			w, useColor = os.Stdout, isTerminal(os.Stdout.Fd())
		case "stderr":
			w, useColor = os.Stderr, isTerminal(os.Stderr.Fd())
		default:
			var err error
			f, err = os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			w = f
		}

		mu.Lock()
		prev := logFile
		output, logFile, color = w, f, useColor
		mu.Unlock()

		if prev != nil {
			_ = prev.Close()
		}
	}

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	} else {
		rebuild()
	}
	return nil
}

// SetOutput redirects log output to w. Used by tests.
func SetOutput(w io.Writer, useColor bool) {
	mu.Lock()
	output, color = w, useColor
	mu.Unlock()
	rebuild()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l)
	}
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// SetFormat sets the output format (text or json). Unknown formats are ignored.
func SetFormat(f string) {
	f = strings.ToLower(f)
	if f != "text" && f != "json" {
		return
	}
	mu.Lock()
	format = f
	mu.Unlock()
	rebuild()
}

func current() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	return l
}

func log(ctx context.Context, l slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l < level.Level() {
		return
	}
	current().Log(ctx, l, msg, args...)
}

// Debug logs at debug level: Debug("message", "key1", value1, ...)
func Debug(msg string, args ...any) { log(context.Background(), slog.LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { log(context.Background(), slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { log(context.Background(), slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { log(context.Background(), slog.LevelError, msg, args) }

// DebugCtx logs at debug level, prefixing the fields of any LogContext
// carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with context fields.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with context fields.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with context fields.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelError, msg, args)
}

// With returns a logger with pre-bound attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// contextHandler prepends LogContext fields found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	lc := FromContext(ctx)
	if lc == nil {
		return h.Handler.Handle(ctx, r)
	}

	nr := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	nr.AddAttrs(lc.Attrs()...)
	r.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(a)
		return true
	})
	return h.Handler.Handle(ctx, nr)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
