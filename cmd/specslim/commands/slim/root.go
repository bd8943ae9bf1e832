// Package slim holds the specslim commands.
package slim

import "github.com/spf13/cobra"

// Apply registers the commands on rootCmd and loads settings before any of them runs.
func Apply(rootCmd *cobra.Command) {
	rootCmd.PersistentPreRunE = loadSettings

	rootCmd.AddCommand(shortenCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(graphCmd)
}
