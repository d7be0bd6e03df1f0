package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// maxAuditErrorLen bounds the error text copied into an audit record.
const maxAuditErrorLen = 256

// ToolInvocation is the audit record of one tool call.
type ToolInvocation struct {
	ToolCall

	// ID correlates the record with log lines of the same call.
	ID        string
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts the record of call, taking trace ids from the
// span in ctx.
func NewToolInvocation(ctx context.Context, call ToolCall) *ToolInvocation {
	ti := &ToolInvocation{
		ToolCall:  call,
		ID:        uuid.NewString(),
		StartTime: time.Now(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Finish stops the clock. errText is the Go error or the error result
// shown to the caller; it is ignored on success.
func (ti *ToolInvocation) Finish(success bool, errText string) {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if !success {
		if len(errText) > maxAuditErrorLen {
			errText = errText[:maxAuditErrorLen] + "..."
		}
		ti.Error = errText
	}
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the record as slog attributes, omitting empty fields.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
		slog.Bool("read_only", ti.ReadOnly),
	}
	optional := []struct{ key, value string }{
		{"account", ti.Account},
		{"service", ti.Service},
		{"operation", ti.Operation},
		{"trace_id", ti.TraceID},
		{"span_id", ti.SpanID},
		{"error", ti.Error},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	return attrs
}

// AuditLogger writes one record per tool call: "tool_executed" at info
// level, "tool_failed" at warn level. A nil AuditLogger logs nothing.
type AuditLogger struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, enabled bool) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With(slog.String("component", "audit")), enabled: enabled}
}

// LogToolInvocation writes the record of ti.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "tool_executed", ti.LogAttrs()...)
		return
	}
	al.logger.LogAttrs(ctx, slog.LevelWarn, "tool_failed", ti.LogAttrs()...)
}
