package relaytrace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string    // debug, info, warn, error
	Format string    // json or text
	Writer io.Writer // defaults to stderr
}

// NewLogger builds a slog logger from cfg.
func NewLogger(cfg LogConfig) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Leveler {
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

var logger atomic.Pointer[slog.Logger]

func init() { logger.Store(NewLogger(LogConfig{})) }

// SetLogger replaces the package logger; nil restores the default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NewLogger(LogConfig{})
	}
	logger.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger { return logger.Load() }

// DebugLog writes at Info level when Debug is set.
func DebugLog(format string, args ...interface{}) {
	if !Debug {
		return
	}
	Logger().Info(fmt.Sprintf(format, args...))
}

var once sync.Once

func DebugLogOnce(format string, args ...interface{}) {
	if !Debug {
		return
	}
	once.Do(func() {
		Logger().Info(fmt.Sprintf(format, args...))
	})
}
