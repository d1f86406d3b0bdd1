package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"anggaran/internal/grid"
	"anggaran/internal/sheets/xlsx"
)

func newParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Recover the expense and income tables from a sheet without storing anything",
		Long: `Recover the expense and income tables from an .xlsx or .csv file and
print what a sync would import. Nothing is written to the database, so
this is the quickest way to check why a sheet parses strangely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			source := xlsx.New(filepath.Dir(path))
			g, err := source.FetchGrid(cmd.Context(), path)
			if err != nil {
				return err
			}

			anchors := grid.Locate(g)
			if anchors.Empty() {
				return fmt.Errorf("no expenses or income table found in %s", path)
			}

			result := grid.ExtractAll(g, anchors)

			w := cmd.OutOrStdout()
			printRecords(w, "Expenses", result.Expenses)
			printRecords(w, "Income", result.Income)
			return nil
		},
	}

	return cmd
}

func printRecords(w io.Writer, title string, records []grid.Record) {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	fmt.Fprintf(w, "%s: %d rows totalling %s\n", title, len(records), total)

	if len(records) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tDESCRIPTION\tCATEGORY")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Date, r.Amount, r.Description, r.Category)
	}
	tw.Flush()
}
