package sheets

import (
	"context"
	"errors"

	"anggaran/internal/grid"
)

// Ports for document source adapters.
type (
	// File describes one candidate document in a source before its
	// grid is fetched.
	File struct {
		ID       string
		Name     string
		MimeType string
		Size     int64
	}

	// DocumentLister enumerates candidate documents. A listing failure
	// aborts the whole sync run, unlike per-document fetch failures.
	DocumentLister interface {
		ListDocuments(ctx context.Context) ([]File, error)
	}

	// GridFetcher materializes the cell grid of a single document.
	GridFetcher interface {
		FetchGrid(ctx context.Context, fileID string) (grid.Grid, error)
	}

	// Source is a complete document backend.
	Source interface {
		DocumentLister
		GridFetcher
	}
)

// ErrNoData marks a document whose fetch yielded no cells at all. An
// empty payload and an unreachable backend surface the same way, as a
// per-document fetch failure.
var ErrNoData = errors.New("document contains no data")
