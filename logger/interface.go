// Package logger is the structured logging contract shared by the REST client
// and the platform services, with a zerolog implementation that masks
// credentials before they reach the output.
package logger

import "time"

type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	Fatal() LogEvent
	// WithContext binds the zerolog logger stored in ctx, if any.
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent is one entry under construction. Nothing is written until Msg or Msgf.
type LogEvent interface {
	Str(key, value string) LogEvent
	Bool(key string, value bool) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Uint64(key string, value uint64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Bytes(key string, val []byte) LogEvent
	Interface(key string, i any) LogEvent
	Err(err error) LogEvent
	Msg(msg string)
	Msgf(format string, args ...any)
}
