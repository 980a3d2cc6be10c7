package logger

import (
	"fmt"

	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalAdapter routes Temporal SDK logs through zap
type TemporalAdapter struct {
	zl *zap.Logger
}

var _ log.Logger = (*TemporalAdapter)(nil)

// NewTemporalAdapter wraps zl for client.Options.Logger
func NewTemporalAdapter(zl *zap.Logger) *TemporalAdapter {
	return &TemporalAdapter{zl: zl.WithOptions(zap.AddCallerSkip(1))}
}

func (a *TemporalAdapter) fields(keyvals []interface{}) []zap.Field {
	if len(keyvals)%2 != 0 {
		return []zap.Field{zap.Any("keyvals", keyvals)}
	}
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}

func (a *TemporalAdapter) Debug(msg string, keyvals ...interface{}) {
	a.zl.Debug(msg, a.fields(keyvals)...)
}

func (a *TemporalAdapter) Info(msg string, keyvals ...interface{}) {
	a.zl.Info(msg, a.fields(keyvals)...)
}

func (a *TemporalAdapter) Warn(msg string, keyvals ...interface{}) {
	a.zl.Warn(msg, a.fields(keyvals)...)
}

func (a *TemporalAdapter) Error(msg string, keyvals ...interface{}) {
	a.zl.Error(msg, a.fields(keyvals)...)
}

// With returns an adapter carrying keyvals on every record
func (a *TemporalAdapter) With(keyvals ...interface{}) log.Logger {
	return &TemporalAdapter{zl: a.zl.With(a.fields(keyvals)...)}
}
