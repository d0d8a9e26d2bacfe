package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer("svc", "ns", "1.0.0", "i", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_WithoutTracer(t *testing.T) {
	ctx := context.Background()

	got, span := StartSpan(ctx, "test", attribute.String("k", "v"))

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })
}
