package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.InfoLevel)

	log.Info("aligned",
		String("horizon", "6m"),
		Int("points", 180),
		Float64("latest_index", 42.5),
		Duration("took", 1500*time.Millisecond),
		Strings("keywords", []string{"Bitcoin", "Crypto"}),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "aligned", entry["message"])
	assert.Equal(t, "6m", entry["horizon"])
	assert.Equal(t, 180.0, entry["points"])
	assert.Equal(t, 42.5, entry["latest_index"])
	assert.Equal(t, 1500.0, entry["took"])
	assert.Equal(t, "Bitcoin, Crypto", entry["keywords"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.DebugLevel).With(String("component", "pipeline"))

	log.Debug("tick")
	assert.Contains(t, buf.String(), `"component":"pipeline"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
