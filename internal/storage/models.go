package storage

import (
	"database/sql"
	"time"
)

// Row types mirror the schema. Amounts stay TEXT here; all decimal
// arithmetic happens in Go on core types, never in SQL.
type (
	Document struct {
		ID            int64
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

	Transaction struct {
		ID          int64
		DocumentID  int64
		Date        string
		Amount      string
		Description string
		Category    string
		Kind        string
		CreatedAt   time.Time
	}

	Source struct {
		ID         int64
		Backend    string
		Reference  string
		LastSyncAt sql.NullTime
		CreatedAt  time.Time
	}
)
