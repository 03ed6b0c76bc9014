package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "json", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("company", "E02144").Msg("located")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "located", line["message"])
	assert.Equal(t, "E02144", line["company"])
	assert.Equal(t, "info", line["level"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New("WARN", "console", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("doc_id", "S100TR7I").Msg("approximate")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "approximate")
	assert.Contains(t, out, "S100TR7I")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error().Msg("dropped")
	})
}
