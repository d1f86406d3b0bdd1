// Package core holds the domain model shared by the sync, storage and
// analysis layers: documents, transactions and their aggregates.
//
// This file contains the amount arithmetic helpers. Amounts are
// decimal end to end; float64 never touches money.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Uncategorized is the bucket for transactions whose category cell was
// left blank.
const Uncategorized = "uncategorized"

// SumAmounts adds up the amounts of the given transactions.
func SumAmounts(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// AverageOf divides a total by a count, rounded to two decimal places.
// An empty count yields zero instead of a division panic.
func AverageOf(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// CategoryOrDefault maps a blank category to the shared fallback bucket.
func CategoryOrDefault(category string) string {
	if strings.TrimSpace(category) == "" {
		return Uncategorized
	}
	return category
}
