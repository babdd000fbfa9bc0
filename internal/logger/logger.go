package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global structured logger
	Log *slog.Logger
	// LogPath is the path to the current log file
	LogPath string

	logWriter *lumberjack.Logger
)

// ParseLevel maps a config value onto a slog level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// DefaultPath returns ~/.cosmosctl/cosmosctl.log, falling back to the temp dir.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".cosmosctl", "cosmosctl.log")
}

// Init sets up the global logger writing JSON lines to a rotating file.
// An empty logPath uses DefaultPath.
func Init(level slog.Level, logPath string) {
	if logPath == "" {
		logPath = DefaultPath()
	}
	_ = os.MkdirAll(filepath.Dir(logPath), 0o755)
	LogPath = logPath

	logWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}

	InitWriter(level, logWriter)
}

// InitWriter points the global logger at w. Tests use it with a buffer.
func InitWriter(level slog.Level, w io.Writer) {
	Log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(Log)
}

// Close closes the log file
func Close() {
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With creates a new logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}
