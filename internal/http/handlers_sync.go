package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"anggaran/internal/services"
)

// syncRequest is the optional POST /api/sync body. An empty body or an
// empty document means a full sync of every listed document.
type syncRequest struct {
	Document string `json:"document"`
}

// handleSync triggers an import. Full syncs go through the worker
// queue when one is configured and run inline otherwise. Targeted
// syncs always run inline: the queue message carries no target.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		sendError(w, r, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			sendError(w, r, http.StatusBadRequest, "request body must be JSON")
			return
		}
	}

	if req.Document != "" {
		s.syncOneInline(w, r, req.Document)
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSyncRequest(r.Context(), "api"); err != nil {
			slog.ErrorContext(r.Context(), "Failed to queue sync request", "error", err)
			sendError(w, r, http.StatusServiceUnavailable, "sync queue unavailable")
			return
		}
		atomic.AddInt64(&s.metrics.syncsQueued, 1)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	atomic.AddInt64(&s.metrics.syncsInline, 1)
	report, err := s.syncer.SyncAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Inline sync failed", "error", err)
		sendError(w, r, http.StatusInternalServerError, "sync failed")
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusOK, toSyncReportResponse(report))
}

func (s *Server) syncOneInline(w http.ResponseWriter, r *http.Request, document string) {
	atomic.AddInt64(&s.metrics.syncsInline, 1)

	outcome, err := s.syncer.SyncOne(r.Context(), document)
	if err != nil {
		if errors.Is(err, services.ErrNotInSource) {
			sendError(w, r, http.StatusNotFound, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Targeted sync failed", "error", err, "document", document)
		sendError(w, r, http.StatusInternalServerError, "sync failed")
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}
