package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Run("empty defaults to info", func(t *testing.T) {
		lvl, err := ParseLevel("")
		require.NoError(t, err)
		assert.Equal(t, zapcore.InfoLevel, lvl)
	})

	t.Run("case insensitive", func(t *testing.T) {
		lvl, err := ParseLevel("DEBUG")
		require.NoError(t, err)
		assert.Equal(t, zapcore.DebugLevel, lvl)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := ParseLevel("loud")
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	log, err := New("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}
