package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"deskbridge/internal/shared/config"
)

var (
	Logger      *slog.Logger
	baseHandler slog.Handler
	atomicLevel *slog.LevelVar
	mu          sync.RWMutex
)

// Init builds the process logger. In debug mode every level carries its source location.
func Init(cfg *config.LoggerConfig, debug bool) error {
	atomicLevel = new(slog.LevelVar)
	atomicLevel.Set(ParseLevel(cfg.Level, slog.LevelInfo))

	var writer io.Writer
	switch strings.ToLower(cfg.OutputPath) {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writer = file
	}

	showSourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if debug {
		showSourceLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     atomicLevel,
			AddSource: false,
		})
	} else {
		handler = newTintHandler(writer, atomicLevel, !isTerminal(writer))
	}

	install(NewConditionalSourceHandler(handler, showSourceLevels...))
	return nil
}

// ParseLevel maps a config level name to a slog level, falling back to def.
func ParseLevel(name string, def slog.Level) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}

func newTintHandler(w io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		AddSource:  false,
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

func install(handler slog.Handler) {
	mu.Lock()
	defer mu.Unlock()
	baseHandler = handler
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Wrap replaces the process logger with one whose handler is wrap(base).
// Base keeps returning the unwrapped logger.
func Wrap(wrap func(slog.Handler) slog.Handler) {
	Get()
	mu.Lock()
	defer mu.Unlock()
	Logger = slog.New(wrap(baseHandler))
	slog.SetDefault(Logger)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func SetLevel(level slog.Level) {
	if atomicLevel != nil {
		atomicLevel.Set(level)
	}
}

func Get() *slog.Logger {
	mu.RLock()
	l := Logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	handler := newTintHandler(os.Stdout, slog.LevelInfo, !isTerminal(os.Stdout))
	install(NewConditionalSourceHandler(handler, slog.LevelWarn, slog.LevelError))
	return Logger
}

// Base returns the logger without any wrapping installed through Wrap.
func Base() *slog.Logger {
	Get()
	mu.RLock()
	defer mu.RUnlock()
	return slog.New(baseHandler)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

func Named(name string) *slog.Logger {
	return Get().With("logger", name)
}
