package memory

import (
	"context"
	"fmt"
	"sync"

	"anggaran/internal/grid"
	"anggaran/internal/sheets"
)

// Store is an in-memory document source. It backs the "memory" backend
// used in development and in tests, where grids are seeded directly
// instead of fetched over the network.
type Store struct {
	mu       sync.Mutex
	files    []sheets.File
	grids    map[string][][]string
	fetchErr map[string]error
	listErr  error
}

// Ensure interface conformance
var _ sheets.Source = (*Store)(nil)

func New() *Store {
	return &Store{
		grids:    map[string][][]string{},
		fetchErr: map[string]error{},
	}
}

// Sample returns a store seeded with a small demonstration budget, so
// the memory backend serves data out of the box.
func Sample() *Store {
	s := New()
	s.Add("January 2025", [][]string{
		{"Expenses", "", "", "", "", "Income"},
		{"Date", "Amount", "Description", "Category", "", "Date", "Amount", "Description", "Category"},
		{"Jan 2", "Rp1.250.000", "rent", "housing", "", "Jan 25", "Rp8.000.000", "salary", "work"},
		{"Jan 5", "Rp320.000", "groceries", "food", "", "", "", ""},
		{"Jan 9", "Rp85.000", "electricity", "utilities"},
	})
	s.Add("February 2025", [][]string{
		{"Expenses", "", "", "", "", "Income"},
		{"Date", "Amount", "Description", "Category", "", "Date", "Amount", "Description", "Category"},
		{"Feb 1", "Rp1.250.000", "rent", "housing", "", "Feb 25", "Rp8.000.000", "salary", "work"},
		{"Feb 3", "Rp410.000", "groceries", "food", "", "Feb 12", "Rp350.000", "freelance", "side"},
		{"Feb 14", "Rp275.000", "dinner out", "food"},
	})
	return s
}

// Add seeds one document and returns its synthetic id.
func (s *Store) Add(name string, cells [][]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("mem:%d", len(s.files)+1)
	s.files = append(s.files, sheets.File{
		ID:       id,
		Name:     name,
		MimeType: "application/vnd.google-apps.spreadsheet",
	})
	s.grids[id] = cells
	return id
}

// FailFetch makes FetchGrid for the given id fail with err.
func (s *Store) FailFetch(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr[id] = err
}

// FailList makes ListDocuments fail with err.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *Store) ListDocuments(_ context.Context) ([]sheets.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]sheets.File(nil), s.files...), nil
}

func (s *Store) FetchGrid(_ context.Context, fileID string) (grid.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetchErr[fileID]; err != nil {
		return grid.Grid{}, err
	}
	cells, ok := s.grids[fileID]
	if !ok {
		return grid.Grid{}, fmt.Errorf("unknown document %s: %w", fileID, sheets.ErrNoData)
	}
	if len(cells) == 0 {
		return grid.Grid{}, sheets.ErrNoData
	}
	return grid.New(cells), nil
}
