package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"anggaran/internal/core"
	"anggaran/internal/storage"
)

// AnalyzerService computes aggregate views over stored documents
type AnalyzerService struct {
	storage *storage.SQLiteRepository
}

// NewAnalyzerService creates a new analyzer service
func NewAnalyzerService(storage *storage.SQLiteRepository) *AnalyzerService {
	return &AnalyzerService{storage: storage}
}

// ExpenseAnalysis aggregates stored expenses, optionally narrowed to a
// year or a month of a year (zero means no filter).
func (s *AnalyzerService) ExpenseAnalysis(ctx context.Context, year, month int) (core.Analysis, error) {
	return s.analyze(ctx, core.KindExpense, year, month)
}

// IncomeAnalysis aggregates stored income the same way.
func (s *AnalyzerService) IncomeAnalysis(ctx context.Context, year, month int) (core.Analysis, error) {
	return s.analyze(ctx, core.KindIncome, year, month)
}

func (s *AnalyzerService) analyze(ctx context.Context, kind core.Kind, year, month int) (core.Analysis, error) {
	docs, err := s.storage.DocumentsByPeriod(ctx, year, month)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("load documents: %w", err)
	}

	total := decimal.Zero
	for _, d := range docs {
		if kind == core.KindIncome {
			total = total.Add(d.TotalIncome)
		} else {
			total = total.Add(d.TotalExpenses)
		}
	}

	txs, err := s.storage.TransactionsByKind(ctx, kind, year, month)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("load transactions: %w", err)
	}

	return core.Analysis{
		Kind:             kind,
		Total:            total,
		Average:          core.AverageOf(total, len(docs)),
		DocumentCount:    len(docs),
		TransactionCount: len(txs),
		ByCategory:       breakdownByCategory(txs),
	}, nil
}

// Dashboard builds the landing view: the five newest months, overall
// totals and the newest month's net income.
func (s *AnalyzerService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	docs, err := s.storage.DocumentsByPeriod(ctx, 0, 0)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("load documents: %w", err)
	}

	dash := core.Dashboard{
		DocumentCount: len(docs),
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}
	for _, d := range docs {
		dash.TotalExpenses = dash.TotalExpenses.Add(d.TotalExpenses)
		dash.TotalIncome = dash.TotalIncome.Add(d.TotalIncome)
	}

	dash.RecentDocuments = docs
	if len(docs) > 5 {
		dash.RecentDocuments = docs[:5]
	}
	if len(docs) > 0 {
		dash.LatestNetIncome = docs[0].NetIncome()
	}
	return dash, nil
}

// breakdownByCategory groups transactions by category, largest total
// first. Empty categories group under core.Uncategorized.
func breakdownByCategory(txs []core.Transaction) []core.CategoryBreakdown {
	groups := make(map[string]*core.CategoryBreakdown)
	for _, t := range txs {
		cat := core.CategoryOrDefault(t.Category)
		b, ok := groups[cat]
		if !ok {
			b = &core.CategoryBreakdown{Category: cat, Total: decimal.Zero}
			groups[cat] = b
		}
		b.Total = b.Total.Add(t.Amount)
		b.Count++
	}

	out := make([]core.CategoryBreakdown, 0, len(groups))
	for _, b := range groups {
		b.Average = core.AverageOf(b.Total, b.Count)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
