package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()

	got := FromContext(context.Background())
	assert.Equal(t, slog.Default(), got, "empty context should yield the default logger")
}

func TestWithLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	custom := slog.Default().With("component", "test")
	ctx := WithLogger(context.Background(), custom)

	assert.Same(t, custom, FromContext(ctx), "stored logger should be returned as-is")
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.Default().With("component", "fallback")
	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))

	stored := slog.Default().With("component", "stored")
	ctx := WithLogger(context.Background(), stored)
	assert.Same(t, stored, FromContextOrDefault(ctx, fallback))
}
