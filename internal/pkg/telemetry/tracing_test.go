package telemetry

import (
	"chatcore/pkg/logger"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"io"
	"testing"
)

func TestInit_NoEndpoint(t *testing.T) {
	shutdown, err := Init(logger.New(logger.WithoutFile(), logger.WithWriter(io.Discard)), "", "test")
	require.NoError(t, err)
	shutdown()
}

func TestStartSpan_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "parser.process", attribute.String("user", "u1"))
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "parser.process", ended[0].Name())
	assert.Len(t, ended[0].Events(), 1, "ошибка записана один раз")
}
