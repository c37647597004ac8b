// Package obs provides the retrieval engine's observability seams: a
// minimal Logger/Metrics/Clock interface set (so every stage depends on an
// interface, not a concrete sink), a zerolog-backed Logger, and an
// OpenTelemetry-backed Metrics implementation.
package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Clock abstracts time so stage-timing code is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Logger is the structured logging interface every stage depends on.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// ZerologLogger adapts a zerolog.Logger to Logger. This is the primary
// ambient logging stack for the retrieval engine: the teacher carries two
// competing stacks (legacy logrus in internal/logging, current zerolog in
// internal/observability); this repo standardizes on zerolog since it is
// the newer one and already pairs with redis/otel elsewhere in the teacher.
type ZerologLogger struct {
	log zerolog.Logger
}

func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (z *ZerologLogger) Info(msg string, fields map[string]any)  { z.event(z.log.Info(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields map[string]any) { z.event(z.log.Error(), msg, fields) }
func (z *ZerologLogger) Debug(msg string, fields map[string]any) { z.event(z.log.Debug(), msg, fields) }

func (z *ZerologLogger) event(e *zerolog.Event, msg string, fields map[string]any) {
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}
func (NoopLogger) Debug(string, map[string]any) {}

// MockLogger records calls for test assertions.
type MockLogger struct {
	Infos, Errors, Debugs []LoggedCall
}

type LoggedCall struct {
	Msg    string
	Fields map[string]any
}

func (m *MockLogger) Info(msg string, fields map[string]any) {
	m.Infos = append(m.Infos, LoggedCall{msg, fields})
}
func (m *MockLogger) Error(msg string, fields map[string]any) {
	m.Errors = append(m.Errors, LoggedCall{msg, fields})
}
func (m *MockLogger) Debug(msg string, fields map[string]any) {
	m.Debugs = append(m.Debugs, LoggedCall{msg, fields})
}

// Metrics is the counter/histogram interface every stage depends on.
type Metrics interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// NoopMetrics implements Metrics without side effects.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(string, map[string]string)                {}
func (NoopMetrics) ObserveHistogram(string, float64, map[string]string) {}

// ctxKey is a typed context key for request-scoped values.
type ctxKey string

// WithRequestID returns a context carrying a request identifier, used to
// correlate a single retrieve() call's logs/metrics/trace.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey("request_id"), id)
}

// RequestID reads back the identifier set by WithRequestID.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey("request_id")).(string)
	return v
}
