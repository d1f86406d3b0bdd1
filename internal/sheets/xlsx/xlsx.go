package xlsx

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"anggaran/internal/grid"
	"anggaran/internal/sheets"
)

// Folder is a document source reading spreadsheet files from a local
// directory. It exists for offline use and for development against
// exported sheets; document ids are the file paths themselves.
type Folder struct {
	base string
}

// Ensure interface conformance
var _ sheets.Source = (*Folder)(nil)

func New(base string) *Folder {
	return &Folder{base: base}
}

func (f *Folder) ListDocuments(_ context.Context) ([]sheets.File, error) {
	entries, err := os.ReadDir(f.base)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", f.base, err)
	}
	var files []sheets.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Office lock files and dotfiles are never documents.
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		mime, ok := mimeByExt(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, sheets.File{
			ID:       filepath.Join(f.base, name),
			Name:     name,
			MimeType: mime,
			Size:     info.Size(),
		})
	}
	return files, nil
}

func (f *Folder) FetchGrid(_ context.Context, fileID string) (grid.Grid, error) {
	var (
		cells [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(fileID)) {
	case ".xlsx":
		cells, err = readWorkbook(fileID)
	case ".csv":
		cells, err = readCSV(fileID)
	default:
		return grid.Grid{}, fmt.Errorf("unsupported file type %q", filepath.Ext(fileID))
	}
	if err != nil {
		return grid.Grid{}, err
	}
	if len(cells) == 0 {
		return grid.Grid{}, fmt.Errorf("%s: %w", fileID, sheets.ErrNoData)
	}
	return grid.New(cells), nil
}

// readWorkbook reads the first sheet of an xlsx workbook. Budget files
// carry a single sheet; any extra sheets are ignored.
func readWorkbook(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	names := wb.GetSheetList()
	if len(names) == 0 {
		return nil, sheets.ErrNoData
	}
	rows, err := wb.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", names[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1 // budget sheets are ragged
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func mimeByExt(name string) (string, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	case ".csv":
		return "text/csv", true
	}
	return "", false
}
