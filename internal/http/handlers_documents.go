package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"anggaran/internal/core"
	"anggaran/internal/export"
	"anggaran/internal/storage"
)

const documentsPerPage = 10

// handleListDocuments returns one page of stored documents. Supported
// query parameters: search, year, month, page.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parseIntParam(r, "page")
	if err != nil {
		sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if page < 1 {
		page = 1
	}

	filter := storage.ListFilter{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Year:    year,
		Month:   month,
		Page:    page,
		PerPage: documentsPerPage,
	}

	docs, total, err := s.store.ListDocuments(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list documents", "error", err, "search", filter.Search, "year", year, "month", month)
		sendError(w, r, http.StatusInternalServerError, "could not list documents")
		return
	}

	totalPages := (total + documentsPerPage - 1) / documentsPerPage

	writeJSON(w, http.StatusOK, documentListResponse{
		Documents:  toDocumentResponses(docs),
		Total:      total,
		Page:       page,
		PerPage:    documentsPerPage,
		TotalPages: totalPages,
	})
}

// handleGetDocument returns one document by id.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// handleDocumentTransactions returns a document's rows in sheet order.
func (s *Server) handleDocumentTransactions(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}

	txs, err := s.store.DocumentTransactions(r.Context(), doc.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load transactions", "error", err, "document_id", doc.ID)
		sendError(w, r, http.StatusInternalServerError, "could not load transactions")
		return
	}

	writeJSON(w, http.StatusOK, transactionListResponse{
		DocumentID:   doc.ID,
		Transactions: toTransactionResponses(txs),
	})
}

// handleDocumentCSV streams the document's transactions as CSV. The
// file is regenerated from storage on every request, so it reflects the
// stored rows even when the sync-time artifact on disk is stale or
// missing.
func (s *Server) handleDocumentCSV(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}

	txs, err := s.store.DocumentTransactions(r.Context(), doc.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load transactions for CSV", "error", err, "document_id", doc.ID)
		sendError(w, r, http.StatusInternalServerError, "could not load transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(doc)))
	w.WriteHeader(http.StatusOK)

	if err := export.Write(w, txs); err != nil {
		// Too late for an error response, the CSV header is already out
		slog.ErrorContext(r.Context(), "Failed streaming CSV", "error", err, "document_id", doc.ID)
	}
}

// loadDocument resolves the {id} path segment to a stored document,
// writing the error response itself when that fails.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (core.Document, bool) {
	id, err := parseDocumentID(r)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, err.Error())
		return core.Document{}, false
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			sendError(w, r, http.StatusNotFound, fmt.Sprintf("document %d not found", id))
			return core.Document{}, false
		}
		slog.ErrorContext(r.Context(), "Failed to load document", "error", err, "document_id", id)
		sendError(w, r, http.StatusInternalServerError, "could not load document")
		return core.Document{}, false
	}

	return doc, true
}
