package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"anggaran/internal/grid"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestFolderWorkbookRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "July 2024.xlsx"), [][]interface{}{
		{"Expenses", "", "", "", "", "Income"},
		{"date", "amount", "description", "category", "", "date", "amount", "description", "category"},
		{"Jan 1", "Rp10.000", "groceries", "food", "", "Jan 1", "Rp5.000.000", "salary", "work"},
	})

	f := New(dir)
	files, err := f.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || files[0].Name != "July 2024.xlsx" {
		t.Fatalf("files: %+v", files)
	}

	g, err := f.FetchGrid(context.Background(), files[0].ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	res := grid.ExtractAll(g, grid.Locate(g))
	if len(res.Expenses) != 1 || len(res.Income) != 1 {
		t.Fatalf("got %d expenses, %d income", len(res.Expenses), len(res.Income))
	}
	if res.Expenses[0].Description != "groceries" {
		t.Fatalf("expense: %+v", res.Expenses[0])
	}
}

func TestFolderCSV(t *testing.T) {
	dir := t.TempDir()
	csv := "date,amount,description,category\nJan 1,100,coffee,food\nJan 2,200\n"
	if err := os.WriteFile(filepath.Join(dir, "August 2024.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	f := New(dir)
	files, err := f.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || files[0].MimeType != "text/csv" {
		t.Fatalf("files: %+v", files)
	}

	g, err := f.FetchGrid(context.Background(), files[0].ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	records := grid.Extract(g, grid.Locate(g).Expenses)
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	// The short second row reads as empty description and category.
	if records[1].Description != "" || records[1].Category != "" {
		t.Fatalf("ragged row: %+v", records[1])
	}
}

func TestFolderSkipsNonDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"~$July 2024.xlsx", ".hidden.xlsx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := New(dir).ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no documents, got %+v", files)
	}
}

func TestFolderMissingDirectory(t *testing.T) {
	if _, err := New("/nonexistent/path").ListDocuments(context.Background()); err == nil {
		t.Fatal("expected error for missing folder")
	}
}
