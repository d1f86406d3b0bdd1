package storage

import (
	"context"
	"time"
)

const documentColumns = `id, name, sheet_id, month, year, total_expenses, total_income, expense_count, income_count, csv_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SheetID,
		&d.Month,
		&d.Year,
		&d.TotalExpenses,
		&d.TotalIncome,
		&d.ExpenseCount,
		&d.IncomeCount,
		&d.CSVPath,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.DocumentID,
		&t.Date,
		&t.Amount,
		&t.Description,
		&t.Category,
		&t.Kind,
		&t.CreatedAt,
	)
	return t, err
}

type CreateDocumentParams struct {
	Name          string
	SheetID       string
	Month         int64
	Year          int64
	TotalExpenses string
	TotalIncome   string
	ExpenseCount  int64
	IncomeCount   int64
	CSVPath       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createDocument = `
INSERT INTO documents (name, sheet_id, month, year, total_expenses, total_income, expense_count, income_count, csv_path, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + documentColumns

func (q *Queries) CreateDocument(ctx context.Context, arg CreateDocumentParams) (Document, error) {
	row := q.db.QueryRowContext(ctx, createDocument,
		arg.Name,
		arg.SheetID,
		arg.Month,
		arg.Year,
		arg.TotalExpenses,
		arg.TotalIncome,
		arg.ExpenseCount,
		arg.IncomeCount,
		arg.CSVPath,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanDocument(row)
}

type UpdateDocumentParams struct {
	ID            int64
	Name          string
	SheetID       string
	TotalExpenses string
	TotalIncome   string
	ExpenseCount  int64
	IncomeCount   int64
	CSVPath       string
	UpdatedAt     time.Time
}

const updateDocument = `
UPDATE documents
SET name = ?, sheet_id = ?, total_expenses = ?, total_income = ?, expense_count = ?, income_count = ?, csv_path = ?, updated_at = ?
WHERE id = ?
RETURNING ` + documentColumns

func (q *Queries) UpdateDocument(ctx context.Context, arg UpdateDocumentParams) (Document, error) {
	row := q.db.QueryRowContext(ctx, updateDocument,
		arg.Name,
		arg.SheetID,
		arg.TotalExpenses,
		arg.TotalIncome,
		arg.ExpenseCount,
		arg.IncomeCount,
		arg.CSVPath,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanDocument(row)
}

const getDocument = `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

func (q *Queries) GetDocument(ctx context.Context, id int64) (Document, error) {
	return scanDocument(q.db.QueryRowContext(ctx, getDocument, id))
}

type GetDocumentByMonthYearParams struct {
	Month int64
	Year  int64
}

const getDocumentByMonthYear = `SELECT ` + documentColumns + ` FROM documents WHERE month = ? AND year = ?`

func (q *Queries) GetDocumentByMonthYear(ctx context.Context, arg GetDocumentByMonthYearParams) (Document, error) {
	return scanDocument(q.db.QueryRowContext(ctx, getDocumentByMonthYear, arg.Month, arg.Year))
}

const getDocumentBySheetID = `SELECT ` + documentColumns + ` FROM documents WHERE sheet_id = ? LIMIT 1`

func (q *Queries) GetDocumentBySheetID(ctx context.Context, sheetID string) (Document, error) {
	return scanDocument(q.db.QueryRowContext(ctx, getDocumentBySheetID, sheetID))
}

type ListDocumentsParams struct {
	Search string
	Year   int64
	Month  int64
	Limit  int64
	Offset int64
}

const listDocuments = `
SELECT ` + documentColumns + `
FROM documents
WHERE (? = '' OR name LIKE '%' || ? || '%')
  AND (? = 0 OR year = ?)
  AND (? = 0 OR month = ?)
ORDER BY year DESC, month DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListDocuments(ctx context.Context, arg ListDocumentsParams) ([]Document, error) {
	rows, err := q.db.QueryContext(ctx, listDocuments,
		arg.Search, arg.Search,
		arg.Year, arg.Year,
		arg.Month, arg.Month,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type CountDocumentsParams struct {
	Search string
	Year   int64
	Month  int64
}

const countDocuments = `
SELECT COUNT(*)
FROM documents
WHERE (? = '' OR name LIKE '%' || ? || '%')
  AND (? = 0 OR year = ?)
  AND (? = 0 OR month = ?)`

func (q *Queries) CountDocuments(ctx context.Context, arg CountDocumentsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDocuments,
		arg.Search, arg.Search,
		arg.Year, arg.Year,
		arg.Month, arg.Month,
	).Scan(&count)
	return count, err
}

type ListDocumentsByPeriodParams struct {
	Year  int64
	Month int64
}

const listDocumentsByPeriod = `
SELECT ` + documentColumns + `
FROM documents
WHERE (? = 0 OR year = ?)
  AND (? = 0 OR month = ?)
ORDER BY year DESC, month DESC`

func (q *Queries) ListDocumentsByPeriod(ctx context.Context, arg ListDocumentsByPeriodParams) ([]Document, error) {
	rows, err := q.db.QueryContext(ctx, listDocumentsByPeriod,
		arg.Year, arg.Year,
		arg.Month, arg.Month,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type CreateTransactionParams struct {
	DocumentID  int64
	Date        string
	Amount      string
	Description string
	Category    string
	Kind        string
	CreatedAt   time.Time
}

const createTransaction = `
INSERT INTO transactions (document_id, date, amount, description, category, kind, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, document_id, date, amount, description, category, kind, created_at`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.DocumentID,
		arg.Date,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.Kind,
		arg.CreatedAt,
	)
	return scanTransaction(row)
}

const deleteDocumentTransactions = `DELETE FROM transactions WHERE document_id = ?`

func (q *Queries) DeleteDocumentTransactions(ctx context.Context, documentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteDocumentTransactions, documentID)
	return err
}

const getDocumentTransactions = `
SELECT id, document_id, date, amount, description, category, kind, created_at
FROM transactions
WHERE document_id = ?
ORDER BY id`

func (q *Queries) GetDocumentTransactions(ctx context.Context, documentID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getDocumentTransactions, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type GetTransactionsByKindParams struct {
	Kind  string
	Year  int64
	Month int64
}

const getTransactionsByKind = `
SELECT t.id, t.document_id, t.date, t.amount, t.description, t.category, t.kind, t.created_at
FROM transactions t
JOIN documents d ON d.id = t.document_id
WHERE t.kind = ?
  AND (? = 0 OR d.year = ?)
  AND (? = 0 OR d.month = ?)
ORDER BY t.document_id, t.id`

func (q *Queries) GetTransactionsByKind(ctx context.Context, arg GetTransactionsByKindParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getTransactionsByKind,
		arg.Kind,
		arg.Year, arg.Year,
		arg.Month, arg.Month,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type UpsertSourceParams struct {
	Backend   string
	Reference string
	CreatedAt time.Time
}

const upsertSource = `
INSERT INTO sources (backend, reference, created_at)
VALUES (?, ?, ?)
ON CONFLICT (backend, reference) DO UPDATE SET backend = excluded.backend
RETURNING id, backend, reference, last_sync_at, created_at`

func (q *Queries) UpsertSource(ctx context.Context, arg UpsertSourceParams) (Source, error) {
	var s Source
	err := q.db.QueryRowContext(ctx, upsertSource, arg.Backend, arg.Reference, arg.CreatedAt).
		Scan(&s.ID, &s.Backend, &s.Reference, &s.LastSyncAt, &s.CreatedAt)
	return s, err
}

type TouchSourceParams struct {
	ID         int64
	LastSyncAt time.Time
}

const touchSource = `UPDATE sources SET last_sync_at = ? WHERE id = ?`

func (q *Queries) TouchSource(ctx context.Context, arg TouchSourceParams) error {
	_, err := q.db.ExecContext(ctx, touchSource, arg.LastSyncAt, arg.ID)
	return err
}

type GetSourceParams struct {
	Backend   string
	Reference string
}

const getSource = `
SELECT id, backend, reference, last_sync_at, created_at
FROM sources
WHERE backend = ? AND reference = ?`

func (q *Queries) GetSource(ctx context.Context, arg GetSourceParams) (Source, error) {
	var s Source
	err := q.db.QueryRowContext(ctx, getSource, arg.Backend, arg.Reference).
		Scan(&s.ID, &s.Backend, &s.Reference, &s.LastSyncAt, &s.CreatedAt)
	return s, err
}
