package grid

import "github.com/shopspring/decimal"

type (
	// Record is one validated transaction row read out of a table.
	// Date is kept as the raw sheet text; parsing it into a calendar
	// date is left to consumers that need one.
	Record struct {
		Date        string
		Amount      decimal.Decimal
		Description string
		Category    string
		Label       Label
	}

	// Result pairs the extracted rows of both tables, each in grid
	// row order.
	Result struct {
		Expenses []Record
		Income   []Record
	}
)

// Extract reads every row below the anchor's header row into records,
// keeping only rows that pass the acceptance rule: a positive amount
// plus at least one of date or description. Rows failing the rule are
// skipped silently and extraction always runs to the end of the grid,
// so blank rows between valid ones never truncate the result. A nil
// anchor yields no records.
func Extract(g Grid, anchor *Anchor) []Record {
	if anchor == nil {
		return nil
	}
	var records []Record
	for row := anchor.HeaderRow + 1; row < g.Rows(); row++ {
		if rec, ok := readRow(g, row, anchor); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ExtractAll extracts both tables in a single pass over the shared row
// range. Row r of the expenses block and row r of the income block are
// inspected together but accepted or rejected independently, so a blank
// expense block never drops the income cells beside it.
func ExtractAll(g Grid, anchors Anchors) Result {
	var res Result
	start := g.Rows()
	if a := anchors.Expenses; a != nil && a.HeaderRow+1 < start {
		start = a.HeaderRow + 1
	}
	if a := anchors.Income; a != nil && a.HeaderRow+1 < start {
		start = a.HeaderRow + 1
	}
	for row := start; row < g.Rows(); row++ {
		if a := anchors.Expenses; a != nil && row > a.HeaderRow {
			if rec, ok := readRow(g, row, a); ok {
				res.Expenses = append(res.Expenses, rec)
			}
		}
		if a := anchors.Income; a != nil && row > a.HeaderRow {
			if rec, ok := readRow(g, row, a); ok {
				res.Income = append(res.Income, rec)
			}
		}
	}
	return res
}

// readRow builds the candidate record at the anchor's columns and
// applies the acceptance rule.
func readRow(g Grid, row int, anchor *Anchor) (Record, bool) {
	rec := Record{
		Date:        g.Cell(row, anchor.StartColumn+colDate),
		Amount:      NormalizeAmount(g.Cell(row, anchor.StartColumn+colAmount)),
		Description: g.Cell(row, anchor.StartColumn+colDescription),
		Category:    g.Cell(row, anchor.StartColumn+colCategory),
		Label:       anchor.Label,
	}
	if !rec.Amount.IsPositive() {
		return Record{}, false
	}
	if rec.Date == "" && rec.Description == "" {
		return Record{}, false
	}
	return rec, true
}
