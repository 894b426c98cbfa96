package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/config"
)

func TestSetupReturnsLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := Setup(config.ServerConfig{LogLevel: level})
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log, "level %q", level)
	}
}

func TestSetupInvalidLevelFallsBack(t *testing.T) {
	log, err := Setup(config.ServerConfig{LogLevel: "verbose"})
	require.NoError(t, err)
	require.NotNil(t, log)

	// Falls back to info: debug records are suppressed.
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestFromContextRoundTrip(t *testing.T) {
	log, _ := NewTestLogger(t)
	ctx := WithLogger(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
	assert.Same(t, log, FromContextOrDefault(ctx, nil))
}

func TestFromContextMissingLogger(t *testing.T) {
	ctx := context.Background()

	assert.NotNil(t, FromContext(ctx))

	fallback, _ := NewTestLogger(t)
	assert.Same(t, fallback, FromContextOrDefault(ctx, fallback))
}

func TestTestLogBufferEntries(t *testing.T) {
	log, buf := NewTestLogger(t)

	log.Info("first", "key", "value")
	log.Warn("second")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "WARN", entries[1]["level"])
}
