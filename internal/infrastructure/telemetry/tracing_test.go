package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "export", "download_pdf",
		telemetry.SpanAttrInvoiceNumber, "INV-1",
		telemetry.SpanAttrPageCount, 3,
	)
	telemetry.SetAttributes(span, "ignored-key-without-value")
	telemetry.AddEvent(span, "pages_rendered", telemetry.SpanAttrPageCount, 3)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "export.download_pdf", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(telemetry.SpanAttrInvoiceNumber, "INV-1"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int(telemetry.SpanAttrPageCount, 3))
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "pages_rendered", ended[0].Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "export.assemble")
	telemetry.RecordError(span, errors.New("assembly failed"))
	telemetry.RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "assembly failed", ended[0].Status().Description)
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.AddEvent(nil, "e")
	})
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}
