// Package cli wires the application together behind the knowme command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/knowme/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "knowme",
	Short: "Chat with a person's website and CV",
	Long: `knowme ingests a website export and a CV, builds persisted vector
indexes over them, and answers questions through a hosted chat model.
Questions can target one source directly or let the router agent pick.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("knowme version %s (%s, %s)\n", version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("knowme: %w", err)
	}
	return nil
}
