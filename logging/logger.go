package logging

import (
	"fmt"
	"strings"
)

// Logger is the logging contract every relay component accepts through its
// Options. Args are slog-style alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogLevel is the configured verbosity, decoupled from slog.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLevel maps a configuration string (case-insensitive) to a LogLevel.
// The empty string selects info.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any) {}
func (NoOpLogger) Warn(string, ...any) {}
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// ForComponent scopes l to a named component when l is a *RelayLogger and
// returns it unchanged otherwise.
func ForComponent(l Logger, name string) Logger {
	if rl, ok := l.(*RelayLogger); ok {
		return rl.WithComponent(name)
	}
	return l
}

// ForGuild scopes l to a guild and channel when l is a *RelayLogger and
// returns it unchanged otherwise.
func ForGuild(l Logger, guildID, channelID string) Logger {
	if rl, ok := l.(*RelayLogger); ok {
		return rl.WithGuild(guildID, channelID)
	}
	return l
}
