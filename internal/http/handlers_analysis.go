package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"anggaran/internal/core"
)

const dashboardCacheKey = "dashboard"

// handleExpenseAnalysis returns the expense aggregate, optionally
// narrowed by year and month query parameters.
func (s *Server) handleExpenseAnalysis(w http.ResponseWriter, r *http.Request) {
	s.serveAnalysis(w, r, core.KindExpense, s.analyzer.ExpenseAnalysis)
}

// handleIncomeAnalysis returns the income aggregate.
func (s *Server) handleIncomeAnalysis(w http.ResponseWriter, r *http.Request) {
	s.serveAnalysis(w, r, core.KindIncome, s.analyzer.IncomeAnalysis)
}

func (s *Server) serveAnalysis(w http.ResponseWriter, r *http.Request, kind core.Kind, compute func(context.Context, int, int) (core.Analysis, error)) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%s:%d-%d", kind, year, month)
	if analysis, found := s.analysisCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, toAnalysisResponse(analysis, year, month))
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	analysis, err := compute(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Analysis failed", "error", err, "kind", kind, "year", year, "month", month)
		sendError(w, r, http.StatusInternalServerError, "could not compute analysis")
		return
	}

	s.analysisCache.Set(key, analysis)
	writeJSON(w, http.StatusOK, toAnalysisResponse(analysis, year, month))
}

// handleDashboard returns the landing view over all stored documents.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if dashboard, found := s.dashboardCache.Get(dashboardCacheKey); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, toDashboardResponse(dashboard))
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	dashboard, err := s.analyzer.Dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard failed", "error", err)
		sendError(w, r, http.StatusInternalServerError, "could not compute dashboard")
		return
	}

	s.dashboardCache.Set(dashboardCacheKey, dashboard)
	writeJSON(w, http.StatusOK, toDashboardResponse(dashboard))
}
