package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// ContextWithRequestID stores a request id that WithContext picks up
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// LogRequest logs a completed inbound HTTP request
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.InfoWithFields("HTTP request completed", fields)
	}
}

// LogUpstream logs a request made to Instagram
func LogUpstream(l Logger, url string, statusCode int, duration time.Duration) {
	l.DebugWithFields("Upstream request", map[string]interface{}{
		"url":         url,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	})
}

// LogCacheEvent logs a cache hit, miss, store or eviction
func LogCacheEvent(l Logger, event, key string) {
	l.DebugWithFields("Cache "+event, map[string]interface{}{
		"cache_key": key,
		"event":     event,
	})
}

// LogRateLimit logs a client that exceeded its request budget
func LogRateLimit(l Logger, client string, count int, retryAfter time.Duration) {
	l.WithFields(map[string]interface{}{
		"client":      client,
		"count":       count,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit exceeded")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                       {}
func (n *nopLogger) Info(string)                                        {}
func (n *nopLogger) Warn(string)                                        {}
func (n *nopLogger) Error(string)                                       {}
func (n *nopLogger) Fatal(string)                                       {}
func (n *nopLogger) WithField(string, interface{}) Logger               { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(error) Logger                             { return n }
func (n *nopLogger) WithContext(context.Context) Logger                 { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{})     {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})      {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})      {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{})     {}
func (n *nopLogger) FatalWithFields(string, map[string]interface{})     {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                        { z := zerolog.Nop(); return &z }
