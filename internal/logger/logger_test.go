package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("ParsesLevel", func(t *testing.T) {
		log := New(Config{Level: "debug", Format: "console"})
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("UnknownLevelFallsBackToInfo", func(t *testing.T) {
		log := New(Config{Level: "chatty"})
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestNew_WritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "console", Output: &buf})

	log.Warn("dropped malformed plan entries")
	log.Info("not shown")

	assert.Contains(t, buf.String(), "dropped malformed plan entries")
	assert.NotContains(t, buf.String(), "not shown")
}
