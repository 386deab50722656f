package reporting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWithRunTagsSubsequentLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

	logger.WithRun("run-123").Info("starting inference run", "mode", "normal")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, "normal", line["mode"])
}

func TestLoggerWithRoundAndFormatterChain(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

	logger.WithRun("run-123").WithRound(2).WithFormatter("clang-format", "cpp").Info("round complete")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, float64(2), line["round"])
	assert.Equal(t, "clang-format", line["formatter"])
	assert.Equal(t, "cpp", line["language"])
}
