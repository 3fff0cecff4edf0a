package host

import (
	"sort"

	"go.uber.org/zap"
)

// Log routes script diagnostics to zap.
type Log struct {
	log *zap.Logger
}

func NewLog(l *zap.Logger) *Log {
	if l == nil {
		l = Logger()
	}
	return &Log{log: l.With(zap.String("source", "script"))}
}

func (*Log) Namespace() string { return "log" }

func (l *Log) Debug(msg string, fields map[string]any) { l.log.Debug(msg, zapFields(fields)...) }
func (l *Log) Info(msg string, fields map[string]any)  { l.log.Info(msg, zapFields(fields)...) }
func (l *Log) Warn(msg string, fields map[string]any)  { l.log.Warn(msg, zapFields(fields)...) }
func (l *Log) Error(msg string, fields map[string]any) { l.log.Error(msg, zapFields(fields)...) }

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, len(keys))
	for i, k := range keys {
		out[i] = zap.Any(k, fields[k])
	}
	return out
}
