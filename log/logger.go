/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package log defines the structured logging surface of go-keylock.
// Lock and the introspection handler accept a FieldLogger,
// so an application may plug in its own logger or build one with New.
package log

import (
	"fmt"
	"io"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
)

// Field is a single key-value pair attached to a log entry.
type Field = logf.Field

// Field constructors.
var (
	Error    = logf.Error
	String   = logf.String
	Bytes    = logf.Bytes
	Int      = logf.Int
	Int64    = logf.Int64
	Duration = logf.Duration
	Bool     = logf.Bool
	Any      = logf.Any
)

// Level is a logging level.
type Level string

// Logging levels.
const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

func (lvl Level) logfLevel() (logf.Level, error) {
	switch lvl {
	case LevelError:
		return logf.LevelError, nil
	case LevelWarn:
		return logf.LevelWarn, nil
	case "", LevelInfo:
		return logf.LevelInfo, nil
	case LevelDebug:
		return logf.LevelDebug, nil
	}
	return logf.LevelInfo, fmt.Errorf("unknown log level %q", string(lvl))
}

// Format is an encoding of log entries.
type Format string

// Log formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FieldLogger is a logger that writes entries with structured fields.
type FieldLogger interface {
	With(fs ...Field) FieldLogger

	Debug(msg string, fs ...Field)
	Info(msg string, fs ...Field)
	Warn(msg string, fs ...Field)
	Error(msg string, fs ...Field)
}

// CloseFunc flushes buffered entries and stops the writer goroutine.
type CloseFunc func()

// Opts represents options for New.
type Opts struct {
	// Level is the minimal level of written entries. LevelInfo is used if empty.
	Level Level

	// Format is FormatJSON if empty.
	Format Format

	// NoColor disables ANSI colors in FormatText.
	NoColor bool
}

// New returns a logger writing entries to w and the function that must be called to flush them.
// Entries are encoded and written asynchronously.
func New(w io.Writer, opts Opts) (FieldLogger, CloseFunc, error) {
	level, err := opts.Level.logfLevel()
	if err != nil {
		return nil, nil, err
	}

	var appender logf.Appender
	switch opts.Format {
	case "", FormatJSON:
		appender = logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{FieldKeyTime: "time"}))
	case FormatText:
		noColor := opts.NoColor
		appender = logftext.NewAppender(w, logftext.EncoderConfig{NoColor: &noColor})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", string(opts.Format))
	}

	channel, closeChannel := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          appender,
		EnableSyncOnError: true,
	})
	return NewFromLogf(logf.NewLogger(level, channel)), CloseFunc(closeChannel), nil
}

// NewFromLogf wraps the given logf.Logger.
func NewFromLogf(l *logf.Logger) FieldLogger {
	return logfLogger{l}
}

// NewDisabledLogger returns a logger that drops all entries.
func NewDisabledLogger() FieldLogger {
	return logfLogger{logf.NewDisabledLogger()}
}

type logfLogger struct {
	l *logf.Logger
}

func (lg logfLogger) With(fs ...Field) FieldLogger    { return logfLogger{lg.l.With(fs...)} }
func (lg logfLogger) Debug(msg string, fs ...Field) { lg.l.Debug(msg, fs...) }
func (lg logfLogger) Info(msg string, fs ...Field)  { lg.l.Info(msg, fs...) }
func (lg logfLogger) Warn(msg string, fs ...Field)  { lg.l.Warn(msg, fs...) }
func (lg logfLogger) Error(msg string, fs ...Field) { lg.l.Error(msg, fs...) }
