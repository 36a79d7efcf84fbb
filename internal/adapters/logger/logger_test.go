package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"olx-parser-service/internal/core/port"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFluent struct {
	tags     []string
	messages []port.Fields
	closed   bool
}

func (f *fakeFluent) Post(tag string, message interface{}) error {
	f.tags = append(f.tags, tag)
	f.messages = append(f.messages, message.(port.Fields))
	return nil
}

func (f *fakeFluent) Close() error {
	f.closed = true
	return nil
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLevel(tc.in))
		})
	}
}

func TestSlogAdapter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelInfo, IsJSON: true})

	logger.Debug("hidden", nil)
	logger.WithFields(port.Fields{"component": "crawler"}).
		Error("page failed", errors.New("status 503"), port.Fields{"page": 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "page failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "crawler", entry["component"])
	assert.Equal(t, float64(2), entry["page"])
	assert.Equal(t, "status 503", entry["error"])
}

func TestSlogAdapter_Tint(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelDebug, UseColor: true})

	logger.Debug("crawl started", port.Fields{"search": "gdansk"})

	assert.Contains(t, buf.String(), "crawl started")
	assert.Contains(t, buf.String(), "gdansk")
}

func TestFluentLoggerAdapter(t *testing.T) {
	client := &fakeFluent{}
	logger, err := NewFluentLoggerAdapter(client, slog.LevelInfo)
	require.NoError(t, err)

	scoped := logger.WithFields(port.Fields{"component": "extractor"})
	scoped.Debug("dropped", nil)
	scoped.Info("listing extracted", port.Fields{"listing_id": "812345"})
	scoped.Error("listing failed", errors.New("boom"), nil)

	require.Equal(t, []string{"info", "error"}, client.tags)
	assert.Equal(t, "extractor", client.messages[0]["component"])
	assert.Equal(t, "812345", client.messages[0]["listing_id"])
	assert.Equal(t, "listing extracted", client.messages[0]["message"])
	assert.Equal(t, "boom", client.messages[1]["error"])

	// the parent logger is not affected by WithFields
	logger.Warn("plain", nil)
	assert.NotContains(t, client.messages[2], "component")

	require.NoError(t, logger.Close())
	assert.True(t, client.closed)
}

func TestFluentLoggerAdapter_NilClient(t *testing.T) {
	_, err := NewFluentLoggerAdapter(nil, nil)
	assert.Error(t, err)
}

func TestMultiLoggerAdapter(t *testing.T) {
	first, second := &fakeFluent{}, &fakeFluent{}
	firstLogger, err := NewFluentLoggerAdapter(first, slog.LevelDebug)
	require.NoError(t, err)
	secondLogger, err := NewFluentLoggerAdapter(second, slog.LevelWarn)
	require.NoError(t, err)

	multi, err := NewMultiloggerAdapter(firstLogger, secondLogger)
	require.NoError(t, err)

	scoped := multi.WithFields(port.Fields{"run_id": "r-1"})
	scoped.Info("crawl finished", nil)
	scoped.Warn("crawl truncated", nil)

	assert.Equal(t, []string{"info", "warn"}, first.tags)
	assert.Equal(t, []string{"warn"}, second.tags)
	assert.Equal(t, "r-1", second.messages[0]["run_id"])

	_, err = NewMultiloggerAdapter()
	assert.Error(t, err)
}
