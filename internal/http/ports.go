package http

import (
	"context"

	"anggaran/internal/core"
	"anggaran/internal/services"
	"anggaran/internal/storage"
)

// Ports consumed by the HTTP layer. The server depends on these
// interfaces rather than on the concrete services, so handler tests can
// swap in whatever they need.
type (
	// DocumentStore reads stored documents and their transactions.
	DocumentStore interface {
		Ping(ctx context.Context) error
		ListDocuments(ctx context.Context, filter storage.ListFilter) ([]core.Document, int, error)
		GetDocument(ctx context.Context, id int64) (core.Document, error)
		DocumentTransactions(ctx context.Context, documentID int64) ([]core.Transaction, error)
	}

	// Analyzer computes aggregate views over stored documents.
	Analyzer interface {
		ExpenseAnalysis(ctx context.Context, year, month int) (core.Analysis, error)
		IncomeAnalysis(ctx context.Context, year, month int) (core.Analysis, error)
		Dashboard(ctx context.Context) (core.Dashboard, error)
	}

	// Syncer runs document imports inline.
	Syncer interface {
		SyncAll(ctx context.Context) (*services.Report, error)
		SyncOne(ctx context.Context, fileID string) (services.Outcome, error)
	}

	// SyncPublisher hands a sync request to the worker queue instead of
	// running it inline.
	SyncPublisher interface {
		PublishSyncRequest(ctx context.Context, requestedBy string) error
	}
)
