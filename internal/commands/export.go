package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anggaran/internal/export"
)

func newExportCommand() *cobra.Command {
	var configPath string
	var output string

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Write a stored document's transactions as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			repo, err := openRepo(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer repo.Close()

			doc, err := findDocument(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}

			txs, err := repo.DocumentTransactions(cmd.Context(), doc.ID)
			if err != nil {
				return err
			}

			if output == "" {
				return export.Write(cmd.OutOrStdout(), txs)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()

			if err := export.Write(f, txs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txs), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "configuration file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
