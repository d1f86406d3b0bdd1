// Response shapes for the JSON API. Amounts serialize as decimal
// strings, never as floats.

package http

import (
	"time"

	"github.com/shopspring/decimal"

	"anggaran/internal/core"
	"anggaran/internal/services"
)

type documentResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SheetID       string          `json:"sheet_id"`
	Month         int             `json:"month"`
	MonthName     string          `json:"month_name"`
	Year          int             `json:"year"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	NetIncome     decimal.Decimal `json:"net_income"`
	ExpenseCount  int             `json:"expense_count"`
	IncomeCount   int             `json:"income_count"`
	CSVPath       string          `json:"csv_path,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type documentListResponse struct {
	Documents  []documentResponse `json:"documents"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Kind        string          `json:"kind"`
}

type transactionListResponse struct {
	DocumentID   int64                 `json:"document_id"`
	Transactions []transactionResponse `json:"transactions"`
}

type categoryBreakdownResponse struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	Average  decimal.Decimal `json:"average"`
}

type analysisResponse struct {
	Kind             string                      `json:"kind"`
	Year             int                         `json:"year,omitempty"`
	Month            int                         `json:"month,omitempty"`
	Total            decimal.Decimal             `json:"total"`
	AveragePerMonth  decimal.Decimal             `json:"average_per_month"`
	DocumentCount    int                         `json:"document_count"`
	TransactionCount int                         `json:"transaction_count"`
	ByCategory       []categoryBreakdownResponse `json:"by_category"`
}

type dashboardResponse struct {
	DocumentCount   int                `json:"document_count"`
	TotalExpenses   decimal.Decimal    `json:"total_expenses"`
	TotalIncome     decimal.Decimal    `json:"total_income"`
	LatestNetIncome decimal.Decimal    `json:"latest_net_income"`
	RecentDocuments []documentResponse `json:"recent_documents"`
}

type outcomeResponse struct {
	Document string `json:"document"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Month    int    `json:"month,omitempty"`
	Year     int    `json:"year,omitempty"`
	Expenses int    `json:"expenses"`
	Income   int    `json:"income"`
}

type syncReportResponse struct {
	BatchID    string            `json:"batch_id"`
	Created    int               `json:"created"`
	Updated    int               `json:"updated"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	DurationMS int64             `json:"duration_ms"`
	Outcomes   []outcomeResponse `json:"outcomes"`
}

func toDocumentResponse(doc core.Document) documentResponse {
	return documentResponse{
		ID:            doc.ID,
		Name:          doc.Name,
		SheetID:       doc.SheetID,
		Month:         doc.Month,
		MonthName:     doc.MonthName(),
		Year:          doc.Year,
		TotalExpenses: doc.TotalExpenses,
		TotalIncome:   doc.TotalIncome,
		NetIncome:     doc.NetIncome(),
		ExpenseCount:  doc.ExpenseCount,
		IncomeCount:   doc.IncomeCount,
		CSVPath:       doc.CSVPath,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func toDocumentResponses(docs []core.Document) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	return out
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			Date:        tx.Date,
			Amount:      tx.Amount,
			Description: tx.Description,
			Category:    tx.Category,
			Kind:        string(tx.Kind),
		})
	}
	return out
}

func toAnalysisResponse(a core.Analysis, year, month int) analysisResponse {
	byCategory := make([]categoryBreakdownResponse, 0, len(a.ByCategory))
	for _, b := range a.ByCategory {
		byCategory = append(byCategory, categoryBreakdownResponse{
			Category: b.Category,
			Total:    b.Total,
			Count:    b.Count,
			Average:  b.Average,
		})
	}
	return analysisResponse{
		Kind:             string(a.Kind),
		Year:             year,
		Month:            month,
		Total:            a.Total,
		AveragePerMonth:  a.Average,
		DocumentCount:    a.DocumentCount,
		TransactionCount: a.TransactionCount,
		ByCategory:       byCategory,
	}
}

func toDashboardResponse(d core.Dashboard) dashboardResponse {
	return dashboardResponse{
		DocumentCount:   d.DocumentCount,
		TotalExpenses:   d.TotalExpenses,
		TotalIncome:     d.TotalIncome,
		LatestNetIncome: d.LatestNetIncome,
		RecentDocuments: toDocumentResponses(d.RecentDocuments),
	}
}

func toOutcomeResponse(o services.Outcome) outcomeResponse {
	return outcomeResponse{
		Document: o.Document,
		Status:   o.Status,
		Reason:   o.Reason,
		Month:    o.Month,
		Year:     o.Year,
		Expenses: o.Expenses,
		Income:   o.Income,
	}
}

func toSyncReportResponse(r *services.Report) syncReportResponse {
	outcomes := make([]outcomeResponse, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcomes = append(outcomes, toOutcomeResponse(o))
	}
	return syncReportResponse{
		BatchID:    r.BatchID,
		Created:    r.Created,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Failed:     r.Failed,
		DurationMS: r.Duration.Milliseconds(),
		Outcomes:   outcomes,
	}
}
