package grid

import "strings"

// Label identifies which logical table a cell block belongs to.
type Label string

const (
	LabelExpenses Label = "expenses"
	LabelIncome   Label = "income"
)

// Layout constants. Every located table spans four consecutive columns
// in this order; the header probe confirms only the "date" cell, the
// identity of the remaining three columns is assumed from position.
const (
	headerToken     = "date"
	headerProbeRows = 5

	colDate        = 0
	colAmount      = 1
	colDescription = 2
	colCategory    = 3
)

type (
	// Anchor marks where one table begins: the column of its "date"
	// header and the row holding the header cells. Data rows start on
	// the row after HeaderRow.
	Anchor struct {
		Label       Label
		StartColumn int
		HeaderRow   int
	}

	// Anchors holds the resolved position of each table. Either pointer
	// may be nil when the grid carries no trace of that table.
	Anchors struct {
		Expenses *Anchor
		Income   *Anchor
	}

	titlePos struct {
		row, col int
		found    bool
	}
)

// Empty reports whether no table was located at all.
func (a Anchors) Empty() bool {
	return a.Expenses == nil && a.Income == nil
}

// Locate scans the grid for the "Expenses" and "Income" tables and
// resolves an Anchor for each one it can place.
//
// Resolution runs in priority order. The title scan walks the grid
// row-major and keeps the first cell equal (case-insensitive, trimmed)
// to each table title; it keeps going until both titles are seen or
// the grid ends. A title only becomes an anchor once a "date" cell is
// found in the same column within five rows, counting from the title
// row itself. Only when neither label survives those two steps does
// the structural fallback run, inferring the layout from a header row
// alone. A grid with no titles and no header row yields no anchors.
func Locate(g Grid) Anchors {
	var anchors Anchors

	expenses, income := findTitles(g)
	if expenses.found {
		if header, ok := confirmHeader(g, expenses.row, expenses.col); ok {
			anchors.Expenses = &Anchor{Label: LabelExpenses, StartColumn: expenses.col, HeaderRow: header}
		}
	}
	if income.found {
		if header, ok := confirmHeader(g, income.row, income.col); ok {
			anchors.Income = &Anchor{Label: LabelIncome, StartColumn: income.col, HeaderRow: header}
		}
	}

	// A single confirmed title suppresses the fallback for both labels.
	if anchors.Empty() {
		return locateByHeaders(g)
	}
	return anchors
}

// findTitles walks the grid row-major collecting the first occurrence
// of each table title. Later duplicates are ignored.
func findTitles(g Grid) (expenses, income titlePos) {
	for r, row := range g.cells {
		for c, cell := range row {
			switch Label(norm(cell)) {
			case LabelExpenses:
				if !expenses.found {
					expenses = titlePos{row: r, col: c, found: true}
				}
			case LabelIncome:
				if !income.found {
					income = titlePos{row: r, col: c, found: true}
				}
			}
			if expenses.found && income.found {
				return expenses, income
			}
		}
	}
	return expenses, income
}

// confirmHeader probes the five rows starting at the title row for a
// "date" cell in the title's column. The matching row becomes the
// header row; no match within the window leaves the title unconfirmed.
func confirmHeader(g Grid, titleRow, col int) (int, bool) {
	end := titleRow + headerProbeRows
	if end > g.Rows() {
		end = g.Rows()
	}
	for row := titleRow; row < end; row++ {
		if norm(g.Cell(row, col)) == headerToken {
			return row, true
		}
	}
	return 0, false
}

// locateByHeaders handles sheets that carry no title cells at all. The
// first row containing "date" fixes the layout: the first occurrence
// starts the expenses table, a second occurrence on the same row starts
// the income table, and that row is the header row for both.
func locateByHeaders(g Grid) Anchors {
	for r, row := range g.cells {
		first, second := -1, -1
		for c, cell := range row {
			if norm(cell) != headerToken {
				continue
			}
			if first < 0 {
				first = c
			} else {
				second = c
				break
			}
		}
		if first < 0 {
			continue
		}
		anchors := Anchors{
			Expenses: &Anchor{Label: LabelExpenses, StartColumn: first, HeaderRow: r},
		}
		if second >= 0 {
			anchors.Income = &Anchor{Label: LabelIncome, StartColumn: second, HeaderRow: r}
		}
		return anchors
	}
	return Anchors{}
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
