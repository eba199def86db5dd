package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

func newBufferLogger(format logx.Format) (*logx.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.EnableColors = false
	cfg.Output = buf
	return logx.NewLogger(cfg), buf
}

func TestJSONFormatter_IncludesFieldsAndError(t *testing.T) {
	logger, buf := newBufferLogger(logx.FormatJSON)

	logger.WithField("user_id", "u-1").WithError(errors.New("boom")).Warn("audit failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "audit failed", line["message"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(logx.FormatConsole)
	logger.SetLevel(logx.LevelWarn)

	logger.WithField("k", "v").Info("hidden")
	assert.Empty(t, buf.String())

	logger.WithField("k", "v").Error("shown")
	assert.True(t, strings.Contains(buf.String(), "[ERROR] shown k=v"), buf.String())
}

func TestContextWithFields(t *testing.T) {
	logger, buf := newBufferLogger(logx.FormatJSON)

	ctx := logx.ContextWithFields(context.Background(), logx.Fields{"request_id": "req-1"})
	ctx = logx.ContextWithFields(ctx, logx.Fields{"user_id": "u-2"})

	logger.WithField("step", "send").WithContext(ctx).Info("relayed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "u-2", line["user_id"])
	assert.Equal(t, "send", line["step"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logx.LevelWarn, logx.ParseLevel("warning"))
	assert.Equal(t, logx.LevelOff, logx.ParseLevel("OFF"))
	assert.Equal(t, logx.LevelInfo, logx.ParseLevel("nonsense"))
	assert.Equal(t, logx.LevelDebug, logx.ParseLevel("trace"))
	assert.Equal(t, logx.LevelError, logx.ParseLevel("fatal"))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_COLOR", "false")
	t.Setenv("LOG_TIME_FORMAT", "unixmilli")

	cfg := logx.LoadFromEnv()
	assert.Equal(t, logx.LevelWarn, cfg.Level)
	assert.Equal(t, logx.FormatJSON, cfg.Format)
	assert.False(t, cfg.EnableColors)
	assert.Equal(t, "unixmilli", cfg.TimeFormat)
}

func TestLoadFromEnv_BadValueKeepsDefaults(t *testing.T) {
	t.Setenv("LOG_COLOR", "sometimes")

	cfg := logx.LoadFromEnv()
	assert.Equal(t, logx.DefaultConfig().Level, cfg.Level)
	assert.True(t, cfg.EnableColors)
}

func TestLogger_Off(t *testing.T) {
	logger, buf := newBufferLogger(logx.FormatJSON)
	logger.SetLevel(logx.LevelOff)

	logger.WithField("k", "v").Error("dropped")
	assert.Empty(t, buf.String())
}
