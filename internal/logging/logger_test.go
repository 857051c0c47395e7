package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	a := NewLogger("test-cache")
	b := NewLogger("test-cache")
	assert.Same(t, a, b)
	assert.Equal(t, "test-cache", a.Data["component"])
}

func TestConfigureAppliesToExistingLoggers(t *testing.T) {
	os.Unsetenv("TIMESHEETS_LOG_LEVEL")
	var buf bytes.Buffer
	logger := NewLogger("test-configure")

	Configure(Config{Level: "warn", Format: "json"}, &buf)
	t.Cleanup(func() { Configure(Config{Level: "info", Format: "text"}, os.Stderr) })

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "test-configure", line["component"])
}

func TestEnvOverridesLevel(t *testing.T) {
	t.Setenv("TIMESHEETS_LOG_LEVEL", "debug")
	var buf bytes.Buffer
	logger := NewLogger("test-env")

	Configure(Config{Level: "error"}, &buf)
	t.Cleanup(func() { Configure(Config{Level: "info", Format: "text"}, os.Stderr) })

	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}
