// Package grid locates and extracts transaction tables from raw
// spreadsheet cell grids.
//
// Monthly budget sheets carry two tables, "Expenses" and "Income",
// placed side by side at no fixed position. Locate finds where each
// table starts and Extract walks the rows below the header into
// transaction records.
package grid

import (
	"fmt"
	"strings"
)

// Grid is an immutable 2-D view over spreadsheet cell values. Rows may
// be ragged; Cell returns the empty string for any out-of-range access,
// so callers never bounds-check.
type Grid struct {
	cells [][]string
}

// New builds a Grid from rows of cell strings. The slice is referenced,
// not copied, and must not be modified afterwards.
func New(cells [][]string) Grid {
	return Grid{cells: cells}
}

// FromValues builds a Grid from the loosely typed row values returned
// by spreadsheet APIs. Each cell is stringified and trimmed; nil cells
// become empty strings.
func FromValues(values [][]interface{}) Grid {
	cells := make([][]string, len(values))
	for i, row := range values {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cells[i][j] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return Grid{cells: cells}
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int {
	return len(g.cells)
}

// Cell returns the trimmed value at (row, col), or the empty string
// when either index falls outside the grid.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.cells) {
		return ""
	}
	r := g.cells[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}
