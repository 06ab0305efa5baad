package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"
)

// LoggerConfig configures construction of a RelayLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json (default) or text
	Output    io.Writer
	Component string
}

// RelayLogger is the slog-backed Logger used by the relay. Scoping methods
// return copies; the receiver is never mutated. Scoped attributes replace
// earlier ones with the same key instead of repeating them.
type RelayLogger struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

// NewLogger builds a RelayLogger. A nil cfg logs JSON at info level to
// stdout.
func NewLogger(cfg *LoggerConfig) *RelayLogger {
	if cfg == nil {
		cfg = &LoggerConfig{Level: LogLevelInfo}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level)}
	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	}
	l := &RelayLogger{logger: slog.New(handler)}
	if cfg.Component != "" {
		l.attrs = []slog.Attr{slog.String("component", cfg.Component)}
	}
	return l
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *RelayLogger) with(attrs ...slog.Attr) *RelayLogger {
	merged := slices.Clone(l.attrs)
	for _, a := range attrs {
		i := slices.IndexFunc(merged, func(m slog.Attr) bool { return m.Key == a.Key })
		if i >= 0 {
			merged[i] = a
		} else {
			merged = append(merged, a)
		}
	}
	return &RelayLogger{logger: l.logger, attrs: merged}
}

// WithContext attaches one key/value attribute to every entry.
func (l *RelayLogger) WithContext(key string, value any) *RelayLogger {
	return l.with(slog.Any(key, value))
}

// WithComponent sets the logical component (router, policy, dispatch, etc.).
func (l *RelayLogger) WithComponent(c string) *RelayLogger {
	return l.with(slog.String("component", c))
}

// WithGuild attaches guild and channel identifiers.
func (l *RelayLogger) WithGuild(guildID, channelID string) *RelayLogger {
	return l.with(slog.String("guild_id", guildID), slog.String("channel_id", channelID))
}

func (l *RelayLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.attrs...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func (l *RelayLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *RelayLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }
func (l *RelayLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }
func (l *RelayLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// result logs a finished operation at info, or at error when err is set.
func (l *RelayLogger) result(okMsg, failMsg string, err error, args ...any) {
	if err != nil {
		l.log(slog.LevelError, failMsg, append(args, "success", false, "error", err.Error())...)
		return
	}
	l.log(slog.LevelInfo, okMsg, append(args, "success", true)...)
}

// LogCompletion records one backend call.
func (l *RelayLogger) LogCompletion(model string, dur time.Duration, err error) {
	l.result("Completion finished", "Completion failed", err, "model", model, "duration", dur)
}

// LogDispatch records the delivery of one reply split into chunks.
func (l *RelayLogger) LogDispatch(target string, chunks int, dur time.Duration, err error) {
	l.result("Reply dispatched", "Reply dispatch failed", err, "target", target, "chunk_count", chunks, "duration", dur)
}
