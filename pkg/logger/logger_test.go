package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(buffer *bytes.Buffer, level zapcore.Level) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buffer),
		level,
	)
	return NewFromCore(core)
}

func TestLogger_WritesKeyValues(t *testing.T) {
	buffer := &bytes.Buffer{}
	log := newBufferLogger(buffer, zap.InfoLevel)

	log.With("auction_id", 42).Info("Stream opened", "attempt", 0)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Stream opened", entry["msg"])
	assert.Equal(t, float64(42), entry["auction_id"])
	assert.Equal(t, float64(0), entry["attempt"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	buffer := &bytes.Buffer{}
	log := newBufferLogger(buffer, zap.WarnLevel)

	log.Info("dropped")
	log.Debug("dropped too")
	assert.Zero(t, buffer.Len())

	log.Warn("kept")
	assert.Contains(t, buffer.String(), "kept")
}

func TestNewWithLevel_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewWithLevel("chatty")
	assert.NotNil(t, log)
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	log := NewNop()
	log.Error("nothing happens", "error", "boom")
	log.With("k", "v").Warn("still nothing")
}
