package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"anggaran/internal/core"
	"anggaran/internal/services"
)

func newAnalysisCommand() *cobra.Command {
	var configPath string
	var kind string
	var year, month int

	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Summarize stored transactions by category",
		Args:  cobra.NoArgs,
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

			analyzer := services.NewAnalyzerService(repo)

			var analysis core.Analysis
			switch kind {
			case "expense":
				analysis, err = analyzer.ExpenseAnalysis(cmd.Context(), year, month)
			case "income":
				analysis, err = analyzer.IncomeAnalysis(cmd.Context(), year, month)
			default:
				return fmt.Errorf("invalid kind %q: must be expense or income", kind)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s analysis: total %s across %d documents, %d transactions (average %s per month)\n",
				analysis.Kind, analysis.Total, analysis.DocumentCount, analysis.TransactionCount, analysis.Average)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tCOUNT\tAVERAGE")
			for _, c := range analysis.ByCategory {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.Category, c.Total, c.Count, c.Average)
			}
			tw.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "configuration file")
	cmd.Flags().StringVar(&kind, "kind", "expense", "expense or income")
	cmd.Flags().IntVar(&year, "year", 0, "restrict to a year")
	cmd.Flags().IntVar(&month, "month", 0, "restrict to a month (1-12)")

	return cmd
}
