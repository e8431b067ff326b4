// Package logger provides the structured logging contract used across the
// service's modules, backed by zerolog.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level is a logging verbosity level, read from configuration.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggerInterface is the logging contract every module depends on, so that
// modules never take a concrete zerolog.Logger and remain swappable in tests.
type LoggerInterface interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) LoggerInterface
}

// Options configures construction of a Logger beyond writer/level/name.
type Options struct {
	Pretty bool // human-readable console output instead of JSON lines
}

type zlogger struct {
	log zerolog.Logger
}

// New builds a LoggerInterface writing to w at the given level, tagged with
// the service name. opts may be nil to accept defaults.
func New(w io.Writer, level Level, name string, opts *Options) LoggerInterface {
	if w == nil {
		w = os.Stdout
	}
	if opts != nil && opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	base := zerolog.New(w).With().Timestamp().Str("service", name).Logger().Level(level.zerolog())
	return &zlogger{log: base}
}

func fields(ev *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keyvals[i+1])
	}
	return ev
}

func (z *zlogger) Debug(msg string, keyvals ...interface{}) {
	fields(z.log.Debug(), keyvals).Msg(msg)
}

func (z *zlogger) Info(msg string, keyvals ...interface{}) {
	fields(z.log.Info(), keyvals).Msg(msg)
}

func (z *zlogger) Warn(msg string, keyvals ...interface{}) {
	fields(z.log.Warn(), keyvals).Msg(msg)
}

func (z *zlogger) Error(msg string, keyvals ...interface{}) {
	fields(z.log.Error(), keyvals).Msg(msg)
}

func (z *zlogger) With(keyvals ...interface{}) LoggerInterface {
	ctx := z.log.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keyvals[i+1])
	}
	return &zlogger{log: ctx.Logger()}
}
