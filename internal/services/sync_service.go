package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"anggaran/internal/core"
	"anggaran/internal/export"
	"anggaran/internal/grid"
	"anggaran/internal/sheets"
	"anggaran/internal/storage"
)

// ErrNotInSource marks a targeted sync whose document the source does
// not list under the requested id or name.
var ErrNotInSource = errors.New("document not found in source")

// Outcome statuses. Failures are collected per document and never
// abort a batch.
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type (
	// Outcome is the tagged result of one document's sync attempt.
	Outcome struct {
		Document string
		Status   string
		Reason   string
		Month    int
		Year     int
		Expenses int
		Income   int
	}

	// Report summarizes one sync batch.
	Report struct {
		BatchID  string
		Outcomes []Outcome
		Created  int
		Updated  int
		Skipped  int
		Failed   int
		Started  time.Time
		Duration time.Duration
	}
)

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusCreated:
		r.Created++
	case StatusUpdated:
		r.Updated++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// SyncConfig holds configuration for the sync service
type SyncConfig struct {
	// Backend and Reference identify the source row stamped after each batch
	Backend   string
	Reference string

	// ExportDir receives the per-document CSV artifacts
	ExportDir string

	// Parallelism caps concurrent grid fetches (default: 4)
	Parallelism int
}

// SyncService imports budget sheets from a document source into storage
type SyncService struct {
	storage *storage.SQLiteRepository
	source  sheets.Source
	config  SyncConfig
}

// NewSyncService creates a new sync service
func NewSyncService(storage *storage.SQLiteRepository, source sheets.Source, config SyncConfig) *SyncService {
	if config.Parallelism < 1 {
		config.Parallelism = 4
	}
	return &SyncService{
		storage: storage,
		source:  source,
		config:  config,
	}
}

// parsed carries one document through the pipeline. outcome is set as
// soon as a stage decides the document's fate, short-circuiting the
// stages after it.
type parsed struct {
	file    sheets.File
	month   int
	year    int
	result  grid.Result
	outcome *Outcome
}

// SyncAll runs one batch over every document the source lists. Listing
// failure aborts the run; everything after that is collected per
// document in the report.
func (s *SyncService) SyncAll(ctx context.Context) (*Report, error) {
	report := &Report{
		BatchID: uuid.NewString(),
		Started: time.Now(),
	}

	files, err := s.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	slog.InfoContext(ctx, "Sync batch started",
		"batch_id", report.BatchID,
		"documents", len(files))

	// Stage 1: fetch and parse in parallel. Workers record failures
	// as outcomes instead of returning errors, so the whole listing
	// is always processed.
	results := make([]parsed, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.Parallelism)
	for i, f := range files {
		group.Go(func() error {
			results[i] = s.fetchAndParse(gctx, f, false)
			return nil
		})
	}
	group.Wait()

	// Stage 2: store sequentially in listing order.
	for _, p := range results {
		report.add(s.store(ctx, p))
	}

	if err := s.storage.RecordSourceSync(ctx, s.config.Backend, s.config.Reference, time.Now().UTC()); err != nil {
		slog.WarnContext(ctx, "Failed to record source sync time", "error", err)
	}

	report.Duration = time.Since(report.Started)
	slog.InfoContext(ctx, "Sync batch finished",
		"batch_id", report.BatchID,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)

	return report, nil
}

// SyncOne re-imports a single document by source file id or display
// name, replacing whatever is stored for its month.
func (s *SyncService) SyncOne(ctx context.Context, fileID string) (Outcome, error) {
	files, err := s.source.ListDocuments(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list documents: %w", err)
	}

	for _, f := range files {
		if f.ID == fileID || f.Name == fileID {
			return s.store(ctx, s.fetchAndParse(ctx, f, true)), nil
		}
	}
	return Outcome{}, fmt.Errorf("document %q: %w", fileID, ErrNotInSource)
}

// fetchAndParse gates the document by its name, fetches its grid and
// extracts transactions. force bypasses the already-synced skip so a
// targeted re-sync can replace stored data.
func (s *SyncService) fetchAndParse(ctx context.Context, f sheets.File, force bool) parsed {
	p := parsed{file: f}

	month, year, ok := sheets.MonthYearFromName(f.Name)
	if !ok {
		slog.DebugContext(ctx, "Skipping document without month and year", "name", f.Name)
		p.outcome = &Outcome{Document: f.Name, Status: StatusSkipped, Reason: "no month and year in name"}
		return p
	}
	p.month, p.year = month, year

	if !force {
		_, err := s.storage.GetDocumentBySheetID(ctx, f.ID)
		switch {
		case err == nil:
			p.outcome = &Outcome{Document: f.Name, Status: StatusSkipped, Reason: "already synced", Month: month, Year: year}
			return p
		case !errors.Is(err, core.ErrDocumentNotFound):
			p.outcome = &Outcome{Document: f.Name, Status: StatusFailed, Reason: fmt.Sprintf("lookup %s: %v", f.Name, err), Month: month, Year: year}
			return p
		}
	}

	g, err := s.source.FetchGrid(ctx, f.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch document grid", "name", f.Name, "error", err)
		p.outcome = &Outcome{Document: f.Name, Status: StatusFailed, Reason: fmt.Sprintf("fetch %s: %v", f.Name, err), Month: month, Year: year}
		return p
	}

	p.result = grid.ExtractAll(g, grid.Locate(g))
	return p
}

// store computes totals, writes the CSV artifact and upserts the
// document with its transactions.
func (s *SyncService) store(ctx context.Context, p parsed) Outcome {
	if p.outcome != nil {
		return *p.outcome
	}

	expenses := transactionsFromRecords(p.result.Expenses)
	income := transactionsFromRecords(p.result.Income)

	doc := core.Document{
		Name:          p.file.Name,
		SheetID:       p.file.ID,
		Month:         p.month,
		Year:          p.year,
		TotalExpenses: core.SumAmounts(expenses),
		TotalIncome:   core.SumAmounts(income),
		ExpenseCount:  len(expenses),
		IncomeCount:   len(income),
	}

	all := make([]core.Transaction, 0, len(expenses)+len(income))
	all = append(all, expenses...)
	all = append(all, income...)

	if s.config.ExportDir != "" {
		path, err := export.WriteDocument(s.config.ExportDir, doc, all)
		if err != nil {
			// The parsed data still lands in storage; only the
			// artifact is missing.
			slog.WarnContext(ctx, "Failed to write CSV artifact",
				"document", doc.Name, "error", err)
		} else {
			doc.CSVPath = path
		}
	}

	stored, created, err := s.storage.UpsertDocumentWithTransactions(ctx, doc, all)
	if err != nil {
		return Outcome{Document: doc.Name, Status: StatusFailed, Reason: fmt.Sprintf("store %s: %v", doc.Name, err), Month: p.month, Year: p.year}
	}

	status := StatusUpdated
	if created {
		status = StatusCreated
	}

	slog.InfoContext(ctx, "Synced document",
		"document", stored.Name,
		"status", status,
		"expenses", len(expenses),
		"income", len(income))

	return Outcome{
		Document: stored.Name,
		Status:   status,
		Month:    p.month,
		Year:     p.year,
		Expenses: len(expenses),
		Income:   len(income),
	}
}

func transactionsFromRecords(records []grid.Record) []core.Transaction {
	txs := make([]core.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, core.Transaction{
			Date:        rec.Date,
			Amount:      rec.Amount,
			Description: rec.Description,
			Category:    rec.Category,
			Kind:        kindFor(rec.Label),
		})
	}
	return txs
}

// kindFor maps the plural sheet label onto the singular stored kind.
func kindFor(label grid.Label) core.Kind {
	if label == grid.LabelIncome {
		return core.KindIncome
	}
	return core.KindExpense
}
