// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hexbolt9/limpet-cli/internal/flow"
	"github.com/hexbolt9/limpet-cli/internal/observability"
	"github.com/hexbolt9/limpet-cli/internal/runner"
)

var runOpts struct {
	output string
}

var runCmd = &cobra.Command{
	Use:   "run <flow.yaml> [more flows...]",
	Short: "Execute one or more YAML flow files and write JSON reports.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFlows,
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.output, "output", "o", "", "report directory (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runFlows(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	reportDir := runOpts.output
	if reportDir == "" {
		reportDir = appCfg.Report.Dir
	}

	var failures int
	for _, path := range args {
		f, err := flow.ParseFile(path)
		if err != nil {
			return err
		}

		// Each flow gets a fresh page so state never leaks across runs.
		page, cleanup, err := newSession(ctx)
		if err != nil {
			return err
		}

		r := runner.New(page, newClicker(page), appCfg.Clicker, appCfg.Browser.Engine, logger)
		run := r.Run(ctx, f)
		cleanup()

		reportPath := run.DefaultPath(reportDir)
		if err := run.WriteFile(reportPath, appCfg.Report.Pretty); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (report: %s)\n", f.Name, run.Status, reportPath)
		if !run.Passed() {
			failures++
			logger.Warn("Flow failed.", zap.String("flow", f.Name), zap.String("report", reportPath))
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d flows failed", failures, len(args))
	}
	return nil
}
