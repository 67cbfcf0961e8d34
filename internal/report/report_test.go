// File: internal/report/report_test.go
package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexbolt9/limpet-cli/internal/report"
)

func TestRunStatusFollowsSteps(t *testing.T) {
	run := report.NewRun("demo", "mock")
	run.AddStep(report.StepResult{Type: "navigate", Status: report.StatusPassed})
	assert.True(t, run.Passed())

	run.AddStep(report.StepResult{Type: "click", Status: report.StatusFailed, Error: "all candidates exhausted"})
	run.AddStep(report.StepResult{Type: "screenshot", Status: report.StatusSkipped})
	run.Finish()

	assert.False(t, run.Passed())
	assert.Equal(t, report.StatusFailed, run.Status)

	// Indexes are assigned in insertion order.
	for i, step := range run.Steps {
		assert.Equal(t, i, step.Index)
	}
	assert.False(t, run.FinishedAt.IsZero())
}

func TestWriteJSONRoundTrip(t *testing.T) {
	run := report.NewRun("login flow", "chromedp")
	run.AddStep(report.StepResult{
		Type:        "click",
		Detail:      `[data-testid="login-button"]`,
		Status:      report.StatusPassed,
		Attempts:    2,
		Forced:      true,
		UsedLocator: `[data-testid="login-button"]`,
	})
	run.Finish()

	var buf bytes.Buffer
	require.NoError(t, run.WriteJSON(&buf, true))

	var decoded report.Run
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "login flow", decoded.Flow)
	require.Len(t, decoded.Steps, 1)
	assert.Equal(t, 2, decoded.Steps[0].Attempts)
	assert.True(t, decoded.Steps[0].Forced)

	// Zero-valued click fields stay out of the payload.
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	run := report.NewRun("demo", "mock")
	run.AddStep(report.StepResult{Type: "sleep", Status: report.StatusPassed})
	run.Finish()

	path := filepath.Join(t.TempDir(), "nested", "reports", "demo.json")
	require.NoError(t, run.WriteFile(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"flow":"demo"`)
}

func TestDefaultPathSanitizesFlowName(t *testing.T) {
	run := report.NewRun("Export Dashboard / v2", "mock")
	path := run.DefaultPath("reports")

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "Export-Dashboard-"), base)
	assert.True(t, strings.HasSuffix(base, ".json"))
	assert.NotContains(t, base, "/")
	assert.Equal(t, "reports", filepath.Dir(path))
}
