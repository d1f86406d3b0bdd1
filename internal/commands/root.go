// Package commands implements the anggaranctl subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"anggaran/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "anggaranctl",
		Short:   "Budget sheet importer and analyzer",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newSyncCommand(),
		newDocumentsCommand(),
		newExportCommand(),
		newAnalysisCommand(),
		newParseCommand(),
	)

	return rootCmd
}
