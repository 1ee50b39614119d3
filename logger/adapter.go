package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// zeroEvent routes fields through the sensitive data filter before zerolog sees them.
type zeroEvent struct {
	e      *zerolog.Event
	filter *SensitiveDataFilter
}

func (z zeroEvent) with(e *zerolog.Event) LogEvent {
	return zeroEvent{e: e, filter: z.filter}
}

func (z zeroEvent) Str(key, value string) LogEvent {
	if z.filter != nil {
		value = z.filter.FilterString(key, value)
	}
	return z.with(z.e.Str(key, value))
}

func (z zeroEvent) Bool(key string, value bool) LogEvent     { return z.with(z.e.Bool(key, value)) }
func (z zeroEvent) Int(key string, value int) LogEvent       { return z.with(z.e.Int(key, value)) }
func (z zeroEvent) Int64(key string, value int64) LogEvent   { return z.with(z.e.Int64(key, value)) }
func (z zeroEvent) Uint64(key string, value uint64) LogEvent { return z.with(z.e.Uint64(key, value)) }
func (z zeroEvent) Dur(key string, d time.Duration) LogEvent { return z.with(z.e.Dur(key, d)) }

// Bytes masks the whole value when key is sensitive.
func (z zeroEvent) Bytes(key string, val []byte) LogEvent {
	if z.filter != nil && z.filter.isSensitiveField(key) {
		return z.with(z.e.Str(key, z.filter.config.MaskValue))
	}
	return z.with(z.e.Bytes(key, val))
}

func (z zeroEvent) Interface(key string, i any) LogEvent {
	if z.filter != nil {
		i = z.filter.FilterValue(key, i)
	}
	return z.with(z.e.Interface(key, i))
}

func (z zeroEvent) Err(err error) LogEvent { return z.with(z.e.Err(err)) }

func (z zeroEvent) Msg(msg string)                  { z.e.Msg(msg) }
func (z zeroEvent) Msgf(format string, args ...any) { z.e.Msgf(format, args...) }

func (l *ZeroLogger) event(e *zerolog.Event) LogEvent {
	return zeroEvent{e: e, filter: l.filter}
}

func (l *ZeroLogger) Debug() LogEvent { return l.event(l.zlog.Debug()) }
func (l *ZeroLogger) Info() LogEvent  { return l.event(l.zlog.Info()) }
func (l *ZeroLogger) Warn() LogEvent  { return l.event(l.zlog.Warn()) }
func (l *ZeroLogger) Error() LogEvent { return l.event(l.zlog.Error()) }
func (l *ZeroLogger) Fatal() LogEvent { return l.event(l.zlog.Fatal()) }
