// File: cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via
// -ldflags "-X github.com/hexbolt9/limpet-cli/cmd.Version=v1.2.3".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the limpet version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "limpet %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
