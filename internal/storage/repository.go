package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"anggaran/internal/core"
)

// ListFilter narrows and pages a document listing. Zero values mean
// no filtering on that field.
type ListFilter struct {
	Search  string
	Year    int
	Month   int
	Page    int
	PerPage int
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertDocumentWithTransactions stores a freshly parsed document. An
// existing document for the same month and year is updated and its
// transactions replaced; otherwise a new document is created. The whole
// replacement runs in one database transaction, so readers never see a
// document with half its rows. Returns the stored document and whether
// it was created rather than updated.
func (r *SQLiteRepository) UpsertDocumentWithTransactions(ctx context.Context, doc core.Document, txs []core.Transaction) (core.Document, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Document{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	now := time.Now().UTC()

	var (
		row     Document
		created bool
	)
	existing, err := q.GetDocumentByMonthYear(ctx, GetDocumentByMonthYearParams{
		Month: int64(doc.Month),
		Year:  int64(doc.Year),
	})
	switch {
	case err == nil:
		row, err = q.UpdateDocument(ctx, UpdateDocumentParams{
			ID:            existing.ID,
			Name:          doc.Name,
			SheetID:       doc.SheetID,
			TotalExpenses: doc.TotalExpenses.String(),
			TotalIncome:   doc.TotalIncome.String(),
			ExpenseCount:  int64(doc.ExpenseCount),
			IncomeCount:   int64(doc.IncomeCount),
			CSVPath:       doc.CSVPath,
			UpdatedAt:     now,
		})
		if err != nil {
			return core.Document{}, false, fmt.Errorf("update document: %w", err)
		}
		if err := q.DeleteDocumentTransactions(ctx, existing.ID); err != nil {
			return core.Document{}, false, fmt.Errorf("clear transactions: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		created = true
		row, err = q.CreateDocument(ctx, CreateDocumentParams{
			Name:          doc.Name,
			SheetID:       doc.SheetID,
			Month:         int64(doc.Month),
			Year:          int64(doc.Year),
			TotalExpenses: doc.TotalExpenses.String(),
			TotalIncome:   doc.TotalIncome.String(),
			ExpenseCount:  int64(doc.ExpenseCount),
			IncomeCount:   int64(doc.IncomeCount),
			CSVPath:       doc.CSVPath,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return core.Document{}, false, fmt.Errorf("create document: %w", err)
		}
	default:
		return core.Document{}, false, fmt.Errorf("find document: %w", err)
	}

	for _, t := range txs {
		if _, err := q.CreateTransaction(ctx, CreateTransactionParams{
			DocumentID:  row.ID,
			Date:        t.Date,
			Amount:      t.Amount.String(),
			Description: t.Description,
			Category:    t.Category,
			Kind:        string(t.Kind),
			CreatedAt:   now,
		}); err != nil {
			return core.Document{}, false, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Document{}, false, fmt.Errorf("commit: %w", err)
	}

	out, err := documentFromRow(row)
	if err != nil {
		return core.Document{}, false, err
	}
	return out, created, nil
}

// GetDocument returns one document by id.
func (r *SQLiteRepository) GetDocument(ctx context.Context, id int64) (core.Document, error) {
	row, err := r.queries.GetDocument(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, core.ErrDocumentNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("get document: %w", err)
	}
	return documentFromRow(row)
}

// GetDocumentBySheetID finds the document imported from the given
// source sheet, if any.
func (r *SQLiteRepository) GetDocumentBySheetID(ctx context.Context, sheetID string) (core.Document, error) {
	row, err := r.queries.GetDocumentBySheetID(ctx, sheetID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, core.ErrDocumentNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("get document by sheet id: %w", err)
	}
	return documentFromRow(row)
}

// ListDocuments returns one page of documents plus the total count for
// the filter.
func (r *SQLiteRepository) ListDocuments(ctx context.Context, filter ListFilter) ([]core.Document, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 10
	}

	total, err := r.queries.CountDocuments(ctx, CountDocumentsParams{
		Search: filter.Search,
		Year:   int64(filter.Year),
		Month:  int64(filter.Month),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	rows, err := r.queries.ListDocuments(ctx, ListDocumentsParams{
		Search: filter.Search,
		Year:   int64(filter.Year),
		Month:  int64(filter.Month),
		Limit:  int64(filter.PerPage),
		Offset: int64((filter.Page - 1) * filter.PerPage),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	docs, err := documentsFromRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, int(total), nil
}

// DocumentsByPeriod returns stored documents newest month first,
// optionally narrowed to one year or one month of one year. Zero
// means no filter, matching ListFilter's convention.
func (r *SQLiteRepository) DocumentsByPeriod(ctx context.Context, year, month int) ([]core.Document, error) {
	rows, err := r.queries.ListDocumentsByPeriod(ctx, ListDocumentsByPeriodParams{
		Year:  int64(year),
		Month: int64(month),
	})
	if err != nil {
		return nil, fmt.Errorf("list documents by period: %w", err)
	}
	return documentsFromRows(rows)
}

// DocumentTransactions returns a document's rows in insertion order,
// which preserves the source sheet's row order.
func (r *SQLiteRepository) DocumentTransactions(ctx context.Context, documentID int64) ([]core.Transaction, error) {
	rows, err := r.queries.GetDocumentTransactions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document transactions: %w", err)
	}
	return transactionsFromRows(rows)
}

// TransactionsByKind returns stored transactions of one kind across
// documents, optionally narrowed by the documents' year and month.
func (r *SQLiteRepository) TransactionsByKind(ctx context.Context, kind core.Kind, year, month int) ([]core.Transaction, error) {
	rows, err := r.queries.GetTransactionsByKind(ctx, GetTransactionsByKindParams{
		Kind:  string(kind),
		Year:  int64(year),
		Month: int64(month),
	})
	if err != nil {
		return nil, fmt.Errorf("get transactions by kind: %w", err)
	}
	return transactionsFromRows(rows)
}

// RecordSourceSync upserts the source row and stamps its last sync
// time.
func (r *SQLiteRepository) RecordSourceSync(ctx context.Context, backend, reference string, at time.Time) error {
	src, err := r.queries.UpsertSource(ctx, UpsertSourceParams{
		Backend:   backend,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	if err := r.queries.TouchSource(ctx, TouchSourceParams{ID: src.ID, LastSyncAt: at}); err != nil {
		return fmt.Errorf("touch source: %w", err)
	}
	return nil
}

// SourceSyncTime returns when the source last finished a sync, or
// false when it never has.
func (r *SQLiteRepository) SourceSyncTime(ctx context.Context, backend, reference string) (time.Time, bool, error) {
	src, err := r.queries.GetSource(ctx, GetSourceParams{Backend: backend, Reference: reference})
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get source: %w", err)
	}
	if !src.LastSyncAt.Valid {
		return time.Time{}, false, nil
	}
	return src.LastSyncAt.Time, true, nil
}

func documentFromRow(row Document) (core.Document, error) {
	totalExpenses, err := decimal.NewFromString(row.TotalExpenses)
	if err != nil {
		return core.Document{}, fmt.Errorf("document %d total_expenses %q: %w", row.ID, row.TotalExpenses, err)
	}
	totalIncome, err := decimal.NewFromString(row.TotalIncome)
	if err != nil {
		return core.Document{}, fmt.Errorf("document %d total_income %q: %w", row.ID, row.TotalIncome, err)
	}
	return core.Document{
		ID:            row.ID,
		Name:          row.Name,
		SheetID:       row.SheetID,
		Month:         int(row.Month),
		Year:          int(row.Year),
		TotalExpenses: totalExpenses,
		TotalIncome:   totalIncome,
		ExpenseCount:  int(row.ExpenseCount),
		IncomeCount:   int(row.IncomeCount),
		CSVPath:       row.CSVPath,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func documentsFromRows(rows []Document) ([]core.Document, error) {
	docs := make([]core.Document, 0, len(rows))
	for _, row := range rows {
		d, err := documentFromRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d amount %q: %w", row.ID, row.Amount, err)
	}
	kind, err := core.ParseKind(row.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d kind %q: %w", row.ID, row.Kind, err)
	}
	return core.Transaction{
		ID:          row.ID,
		DocumentID:  row.DocumentID,
		Date:        row.Date,
		Amount:      amount,
		Description: row.Description,
		Category:    row.Category,
		Kind:        kind,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func transactionsFromRows(rows []Transaction) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}
