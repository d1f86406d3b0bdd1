// Package http serves the JSON API over stored documents: listings,
// analysis views, CSV downloads and sync triggers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"anggaran/internal/cache"
	"anggaran/internal/core"
	"anggaran/internal/middleware/ratelimit"
	"anggaran/internal/middleware/security"
	"anggaran/internal/middleware/trace"
)

const defaultCacheTTL = 15 * time.Minute

// Config holds server configuration.
type Config struct {
	Addr string

	// CacheTTL bounds how stale a served analysis may be. Sync flushes
	// the caches, so the TTL only matters for writes that bypass the
	// API, like a manual database edit.
	CacheTTL time.Duration

	RateLimit ratelimit.Config
}

// appMetrics tracks application-level counters exposed on /metrics.
type appMetrics struct {
	startedAt   time.Time
	syncsQueued int64
	syncsInline int64
	cacheHits   int64
	cacheMisses int64
}

// Server is the API server with its middleware stack and caches.
type Server struct {
	http.Server

	store     DocumentStore
	analyzer  Analyzer
	syncer    Syncer
	publisher SyncPublisher

	analysisCache  cache.Cache[core.Analysis]
	dashboardCache cache.Cache[core.Dashboard]

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer wires routes and the middleware chain, returning a
// ready-to-run server. publisher may be nil, in which case POST
// /api/sync runs the import inline instead of queueing it.
func NewServer(config Config, store DocumentStore, analyzer Analyzer, syncer Syncer, publisher SyncPublisher) *Server {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	detector := security.NewDetector()

	s := &Server{
		store:     store,
		analyzer:  analyzer,
		syncer:    syncer,
		publisher: publisher,

		analysisCache:  cache.NewTTL[core.Analysis](ttl, 2*ttl),
		dashboardCache: cache.NewTTL[core.Dashboard](ttl, 2*ttl),

		rateLimiter:      ratelimit.NewLimiter(config.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),

		metrics: appMetrics{startedAt: time.Now()},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /api/documents/{id}/transactions", s.handleDocumentTransactions)
	mux.HandleFunc("GET /api/documents/{id}/csv", s.handleDocumentCSV)

	mux.HandleFunc("GET /api/analysis/expenses", s.handleExpenseAnalysis)
	mux.HandleFunc("GET /api/analysis/income", s.handleIncomeAnalysis)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("POST /api/sync", s.handleSync)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, nil)

	// Outermost first: tracing sees every request, headers go on every
	// response including 429s from the limiter.
	var handler http.Handler = mux
	handler = limited(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// flushCaches drops all cached analysis views. Called after a sync
// changes the underlying documents.
func (s *Server) flushCaches() {
	s.analysisCache.Flush()
	s.dashboardCache.Flush()
}
