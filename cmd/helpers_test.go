// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"

	"github.com/hexbolt9/limpet-cli/internal/observability"
)

// executeCommand runs the root command with fresh global state and
// returns the combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	observability.ResetForTest()
	appCfg = nil
	engineFlag = ""

	// Keep retry pauses out of the test clock.
	t.Setenv("LIMPET_CLICKER_SETTLE_INTERVAL", "1ms")
	t.Setenv("LIMPET_CLICKER_BACKOFF_INTERVAL", "1ms")
	t.Setenv("LIMPET_CLICKER_TIMEOUT", "50ms")
	t.Setenv("LIMPET_LOGGER_LEVEL", "error")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
