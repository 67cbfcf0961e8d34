// File: internal/observability/logger_test.go
package observability_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hexbolt9/limpet-cli/internal/config"
	"github.com/hexbolt9/limpet-cli/internal/observability"
)

func newTestLoggerConfig(format string) config.LoggerConfig {
	cfg := config.NewDefaultConfig().Logger
	cfg.Level = "debug"
	cfg.Format = format
	cfg.ServiceName = "limpet-test"
	return cfg
}

func TestInitializeWritesStructuredOutput(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var buf bytes.Buffer
	observability.Initialize(newTestLoggerConfig("json"), zapcore.AddSync(&buf))

	logger := observability.GetLogger()
	require.NotNil(t, logger)
	logger.Info("resilient click succeeded")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "resilient click succeeded")
	assert.Contains(t, out, "limpet-test")
}

func TestInitializeRunsOnlyOnce(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var first, second bytes.Buffer
	observability.Initialize(newTestLoggerConfig("json"), zapcore.AddSync(&first))
	observability.Initialize(newTestLoggerConfig("json"), zapcore.AddSync(&second))

	logger := observability.GetLogger()
	logger.Info("only the first writer wins")
	require.NoError(t, logger.Sync())

	assert.Contains(t, first.String(), "only the first writer wins")
	assert.Empty(t, second.String())
}

func TestGetLoggerFallsBackBeforeInitialize(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	assert.NotNil(t, observability.GetLogger())
}

func TestConsoleFormatColorizesLevel(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var buf bytes.Buffer
	observability.Initialize(newTestLoggerConfig("console"), zapcore.AddSync(&buf))

	logger := observability.GetLogger()
	logger.Warn("overlay intercepted click")
	require.NoError(t, logger.Sync())

	// Yellow is the default warn color.
	assert.Contains(t, buf.String(), "\x1b[33mWARN\x1b[0m")
}
