package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDiscard(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWithLogger_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelInfo, "text", &buf)
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("loaded schema", "messages", 3)
	assert.Contains(t, buf.String(), "loaded schema")
	assert.Contains(t, buf.String(), "messages=3")
}

func TestLevel(t *testing.T) {
	tests := []struct {
		verbose int
		quiet   bool
		want    slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{2, true, slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.verbose, tt.quiet), "verbose=%d quiet=%v", tt.verbose, tt.quiet)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelDebug, "json", &buf).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
