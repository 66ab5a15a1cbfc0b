package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "docconv"})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	logger.WithContext(ctx).WithOperation("pdf_to_image").Info().Int("pages", 3).Msg("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "docconv", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "pdf_to_image", entry["operation"])
	assert.Equal(t, float64(3), entry["pages"])
	assert.Equal(t, "done", entry["message"])
}

func TestLogger_WithStrAndBool(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Output: &buf})

	logger.WithStr("task_id", "t-9").Debug().Bool("met", false).Msg("task")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "t-9", entry["task_id"])
	assert.Equal(t, false, entry["met"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "error", Output: &buf})

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
