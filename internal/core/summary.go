package core

import "github.com/shopspring/decimal"

type (
	// CategoryBreakdown aggregates one category inside an analysis.
	CategoryBreakdown struct {
		Category string
		Total    decimal.Decimal
		Count    int
		Average  decimal.Decimal
	}

	// Analysis is the aggregate view over stored documents for one
	// transaction kind. Average is per document, not per transaction.
	Analysis struct {
		Kind             Kind
		Total            decimal.Decimal
		Average          decimal.Decimal
		DocumentCount    int
		TransactionCount int
		ByCategory       []CategoryBreakdown
	}

	// Dashboard is the landing view: the newest documents plus overall
	// totals. LatestNetIncome belongs to the newest month on record.
	Dashboard struct {
		RecentDocuments []Document
		DocumentCount   int
		TotalExpenses   decimal.Decimal
		TotalIncome     decimal.Decimal
		LatestNetIncome decimal.Decimal
	}
)
