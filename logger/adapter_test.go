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

// createTestLogger creates a logger that outputs to a buffer for testing
func createTestLogger() (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	return &ZeroLogger{zlog: &zl, filter: NewSensitiveDataFilter(nil)}, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogEventAdapterMsg(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Info().Msg("branch request")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "branch request", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogEventAdapterMsgf(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Warn().Msgf("retry %d of %d", 1, 3)

	entry := decodeEntry(t, buf)
	assert.Equal(t, "retry 1 of 3", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogEventAdapterErr(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Error().Err(errors.New("connection refused")).Msg("attempt failed")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogEventAdapterTypedFields(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Debug().
		Int("status", 200).
		Int64("bytes", 42).
		Uint64("attempts", 2).
		Bool("quiet", false).
		Dur("elapsed", 1500*time.Millisecond).
		Bytes("raw", []byte("ok")).
		Msg("fields")

	entry := decodeEntry(t, buf)
	assert.InDelta(t, 200, entry["status"], 0)
	assert.InDelta(t, 42, entry["bytes"], 0)
	assert.InDelta(t, 2, entry["attempts"], 0)
	assert.Equal(t, false, entry["quiet"])
	assert.InDelta(t, 1500, entry["elapsed"], 0)
	assert.Equal(t, "ok", entry["raw"])
}

func TestLogEventAdapterStrMasksCredentials(t *testing.T) {
	logger, buf := createTestLogger()

	logger.Info().Str("branch_key", "key_live_abc").Str("url", "https://api.branch.io/v1/open").Msg("masked")

	entry := decodeEntry(t, buf)
	assert.Equal(t, DefaultMaskValue, entry["branch_key"])
	assert.Equal(t, "https://api.branch.io/v1/open", entry["url"])
}

func TestLogEventAdapterInterfaceMasksNestedCredentials(t *testing.T) {
	logger, buf := createTestLogger()

	body := map[string]any{
		"identity": "user-1",
		"app_id":   "123456",
		"nested":   map[string]any{"branch_key": "key_live_abc"},
	}
	logger.Info().Interface("body", body).Msg("masked body")

	entry := decodeEntry(t, buf)
	logged, ok := entry["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-1", logged["identity"])
	assert.Equal(t, DefaultMaskValue, logged["app_id"])
	nested, ok := logged["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultMaskValue, nested["branch_key"])

	assert.Equal(t, "key_live_abc", body["nested"].(map[string]any)["branch_key"], "input must not be mutated")
}

func TestLevelsEmitExpectedLevelNames(t *testing.T) {
	logger, buf := createTestLogger()

	for _, tc := range []struct {
		event LogEvent
		level string
	}{
		{logger.Info(), "info"},
		{logger.Warn(), "warn"},
		{logger.Error(), "error"},
		{logger.Debug(), "debug"},
	} {
		buf.Reset()
		tc.event.Msg("x")
		assert.Equal(t, tc.level, decodeEntry(t, buf)["level"])
	}
}
