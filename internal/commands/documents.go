package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"anggaran/internal/storage"
)

func newDocumentsCommand() *cobra.Command {
	var configPath string
	var year, month, page int
	var search string

	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List stored budget documents",
		Args:    cobra.NoArgs,
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

			docs, total, err := repo.ListDocuments(cmd.Context(), storage.ListFilter{
				Search:  search,
				Year:    year,
				Month:   month,
				Page:    page,
				PerPage: 20,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPERIOD\tEXPENSES\tINCOME\tNET")
			for _, d := range docs {
				period := "-"
				if d.Month >= 1 && d.Month <= 12 {
					period = fmt.Sprintf("%s %d", d.MonthName(), d.Year)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					d.ID, d.Name, period, d.TotalExpenses, d.TotalIncome, d.NetIncome())
			}
			tw.Flush()
			fmt.Fprintf(w, "%d of %d documents\n", len(docs), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "configuration file")
	cmd.Flags().StringVar(&search, "search", "", "filter by name substring")
	cmd.Flags().IntVar(&year, "year", 0, "filter by year")
	cmd.Flags().IntVar(&month, "month", 0, "filter by month (1-12)")
	cmd.Flags().IntVar(&page, "page", 1, "result page")

	return cmd
}
