package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	RequestID string    // Unique id assigned when the request enters the system
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Operation string    // Vault operation (checkout, checkin, download, ...)
	Actor     string    // Acting user id
	Project   string    // Project id the operation targets
	File      string    // File id the operation targets
	ClientIP  string    // Client IP address (without port)
	UserAgent string    // Client user agent string
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given request id
func NewLogContext(requestID string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOperation returns a copy with the operation set
func (lc *LogContext) WithOperation(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithActor returns a copy with the acting user set
func (lc *LogContext) WithActor(userID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Actor = userID
	}
	return clone
}

// WithTarget returns a copy with the project and file ids set
func (lc *LogContext) WithTarget(projectID, fileID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Project = projectID
		clone.File = fileID
	}
	return clone
}

// WithClient returns a copy with client address info set
func (lc *LogContext) WithClient(ip, userAgent string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ClientIP = ip
		clone.UserAgent = userAgent
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
