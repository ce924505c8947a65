package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the process-wide structured logger. It discards output until Init
// is called.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init installs a JSON logger writing to stdout. Debug mode lowers the level
// and adds source locations.
func Init(debug bool) {
	InitWithWriter(os.Stdout, debug)
}

// InitWithWriter is Init with a custom destination.
func InitWithWriter(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	Logger = slog.New(handler)
	Logger.Debug("structured logging initialized", "level", level.String())
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
