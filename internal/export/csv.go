// Package export writes the flat CSV artifact produced for every
// imported document. The column order and header spelling are a
// compatibility contract with downstream consumers and must not
// change.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"anggaran/internal/core"
)

// header's first column repeats the description under the "name"
// label; the last column carries the kind.
var header = []string{"name", "amount", "description", "category", "expense/income"}

// Write renders the document's transactions as CSV: header first, then
// every expense row, then every income row, each group in stored
// order.
func Write(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
		for _, tx := range txs {
			if tx.Kind != kind {
				continue
			}
			record := []string{
				tx.Description,
				tx.Amount.String(),
				tx.Description,
				tx.Category,
				string(tx.Kind),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDocument writes the artifact into dir and returns its path. An
// existing file for the document is overwritten, so re-imports refresh
// the artifact.
func WriteDocument(dir string, doc core.Document, txs []core.Transaction) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(doc))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := Write(f, txs); err != nil {
		return "", fmt.Errorf("export %s: %w", doc.Name, err)
	}
	return path, nil
}

// FileName derives the artifact name from the document, dropping any
// spreadsheet extension and characters unsafe in file names.
func FileName(doc core.Document) string {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = fmt.Sprintf("%s %d", doc.MonthName(), doc.Year)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".csv":
		name = name[:len(name)-len(filepath.Ext(name))]
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	return name + ".csv"
}
