// Package logger provides the structured logging interface used across igproxy.
//
// It wraps zerolog. Components receive a Logger and attach fields with
// WithField/WithFields; the HTTP layer attaches the request id through
// ContextWithRequestID and WithContext.
//
//	log := logger.GetLogger().WithField("component", "cache")
//	log.InfoWithFields("cache opened", map[string]interface{}{
//	    "backend": "badger",
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
