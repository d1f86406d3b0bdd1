package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Kind is the persisted side of a transaction. Note the singular
	// spelling: sheet tables are titled "Expenses" and "Income" but
	// stored rows and the CSV export use "expense" and "income".
	Kind string

	// Transaction is one parsed sheet row attached to a document. Date
	// keeps the raw sheet text, which rarely parses as a calendar date.
	Transaction struct {
		ID          int64
		DocumentID  int64
		Date        string
		Amount      decimal.Decimal
		Description string
		Category    string
		Kind        Kind
		CreatedAt   time.Time
	}

	// Document is one imported monthly sheet together with its
	// precomputed totals. CSVPath points at the export artifact written
	// during the sync that created or last updated the document.
	Document struct {
		ID            int64
		Name          string
		SheetID       string
		Month         int // 1-12
		Year          int
		TotalExpenses decimal.Decimal
		TotalIncome   decimal.Decimal
		ExpenseCount  int
		IncomeCount   int
		CSVPath       string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Source records where documents are pulled from and when the last
	// sync against it finished.
	Source struct {
		ID         int64
		Backend    string
		Reference  string
		LastSyncAt time.Time
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty document name")
	ErrEmptyRow         = errors.New("transaction needs a date or a description")
	ErrDocumentNotFound = errors.New("document not found")
)

// ParseKind validates a kind string coming from storage or a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	}
	return ErrInvalidKind
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Date) == "" && strings.TrimSpace(t.Description) == "" {
		return ErrEmptyRow
	}
	return nil
}

func (d Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidMonth
	}
	if d.Year < 2000 || d.Year > 2099 {
		return ErrInvalidYear
	}
	return nil
}

// MonthName returns the English month name, or an empty string for an
// out-of-range month.
func (d Document) MonthName() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return time.Month(d.Month).String()
}

// NetIncome is income minus expenses for the month.
func (d Document) NetIncome() decimal.Decimal {
	return d.TotalIncome.Sub(d.TotalExpenses)
}
