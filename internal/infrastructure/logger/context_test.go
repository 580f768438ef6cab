package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func contextWithSpan() context.Context {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x0a},
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithInvoiceNumber(ctx, "INV-9")
	ctx = WithExportID(ctx, "exp-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "INV-9", GetInvoiceNumber(ctx))
	assert.Equal(t, "exp-1", GetExportID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "01020300000000000000000000000000", GetTraceID(contextWithSpan()))
}

func TestContextLogger_InjectsFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(contextWithSpan(), zap.New(core))
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithInvoiceNumber(ctx, "INV-7")

	L(ctx).With(zap.Int("page", 2)).Info("page rendered")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "INV-7", fields["invoice_number"])
	assert.Equal(t, int64(2), fields["page"])
	assert.NotEmpty(t, fields["trace_id"])
	assert.NotContains(t, fields, "export_id")
}

func TestContextLogger_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		WithLogger(context.Background(), nil).Warn("no logger")
		WithLogger(context.Background(), nil).With(zap.String("k", "v")).Debug("still none")
	})
}
