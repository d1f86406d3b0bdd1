package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"anggaran/internal/services"
	"anggaran/internal/sheets/memory"
	"anggaran/internal/storage"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// capturingPublisher records queue publishes instead of talking to a broker.
type capturingPublisher struct {
	requestedBy []string
	err         error
}

func (p *capturingPublisher) PublishSyncRequest(_ context.Context, requestedBy string) error {
	if p.err != nil {
		return p.err
	}
	p.requestedBy = append(p.requestedBy, requestedBy)
	return nil
}

func budgetGrid() [][]string {
	return [][]string{
		{"Expenses", "", "", "", "", "Income"},
		{"date", "amount", "description", "category", "", "date", "amount", "description", "category"},
		{"Jul 1", "Rp15.000", "coffee", "food", "", "Jul 25", "Rp500.000", "salary", "work"},
		{"Jul 2", "Rp120.000", "books", "education", "", "", "", "", ""},
	}
}

type testServer struct {
	*Server
	repo      *storage.SQLiteRepository
	source    *memory.Store
	publisher *capturingPublisher
}

func newTestServer(t *testing.T, queued bool) *testServer {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "anggaran.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	source := memory.New()
	source.Add("July 2024", budgetGrid())

	syncer := services.NewSyncService(repo, source, services.SyncConfig{
		Backend:   "memory",
		ExportDir: t.TempDir(),
	})
	analyzer := services.NewAnalyzerService(repo)

	var publisher *capturingPublisher
	var port SyncPublisher
	if queued {
		publisher = &capturingPublisher{}
		port = publisher
	}
	srv := NewServer(Config{Addr: ":0", CacheTTL: time.Minute}, repo, analyzer, syncer, port)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testServer{Server: srv, repo: repo, source: source, publisher: publisher}
}

// do drives a request through the full middleware chain.
func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

// syncInline imports the seeded documents through the API.
func (ts *testServer) syncInline(t *testing.T) {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[map[string]any](t, rr)
	require.Equal(t, "ok", health["status"])

	rr = ts.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	ready := decode[map[string]any](t, rr)
	require.Equal(t, "ready", ready["status"])
	checks := ready["checks"].(map[string]any)
	require.Equal(t, "ok", checks["database"])
}

func TestSecurityHeadersApplied(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestSyncInlineThenListDocuments(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rr.Code)
	report := decode[syncReportResponse](t, rr)
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, 1, report.Created)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, "created", report.Outcomes[0].Status)

	rr = ts.do(t, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[documentListResponse](t, rr)
	require.Equal(t, 1, list.Total)
	require.Equal(t, 1, list.TotalPages)
	require.Len(t, list.Documents, 1)

	doc := list.Documents[0]
	require.Equal(t, "July 2024", doc.Name)
	require.Equal(t, 7, doc.Month)
	require.Equal(t, "July", doc.MonthName)
	require.Equal(t, 2024, doc.Year)
	require.Equal(t, "135000", doc.TotalExpenses.String())
	require.Equal(t, "500000", doc.TotalIncome.String())
	require.Equal(t, "365000", doc.NetIncome.String())
	require.Equal(t, 2, doc.ExpenseCount)
	require.Equal(t, 1, doc.IncomeCount)
	require.NotEmpty(t, doc.CSVPath)
}

func TestListDocumentsFilters(t *testing.T) {
	ts := newTestServer(t, false)
	ts.source.Add("August 2024", budgetGrid())
	ts.syncInline(t)

	rr := ts.do(t, http.MethodGet, "/api/documents?search=July", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[documentListResponse](t, rr)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "July 2024", list.Documents[0].Name)

	rr = ts.do(t, http.MethodGet, "/api/documents?month=8", "")
	list = decode[documentListResponse](t, rr)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "August 2024", list.Documents[0].Name)

	rr = ts.do(t, http.MethodGet, "/api/documents?year=2031", "")
	list = decode[documentListResponse](t, rr)
	require.Zero(t, list.Total)
	require.Empty(t, list.Documents)

	rr = ts.do(t, http.MethodGet, "/api/documents?year=abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/documents?month=13", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetDocument(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	list := decode[documentListResponse](t, ts.do(t, http.MethodGet, "/api/documents", ""))
	id := list.Documents[0].ID

	rr := ts.do(t, http.MethodGet, "/api/documents/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := decode[documentResponse](t, rr)
	require.Equal(t, "July 2024", doc.Name)

	rr = ts.do(t, http.MethodGet, "/api/documents/9999", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	fail := decode[errorResponse](t, rr)
	require.Contains(t, fail.Error, "not found")
	require.NotEmpty(t, fail.RequestID)

	rr = ts.do(t, http.MethodGet, "/api/documents/abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocumentTransactions(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	list := decode[documentListResponse](t, ts.do(t, http.MethodGet, "/api/documents", ""))
	id := list.Documents[0].ID

	rr := ts.do(t, http.MethodGet, "/api/documents/"+itoa(id)+"/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	txs := decode[transactionListResponse](t, rr)
	require.Equal(t, id, txs.DocumentID)
	require.Len(t, txs.Transactions, 3)

	// Expenses land before income, both in sheet order
	require.Equal(t, "coffee", txs.Transactions[0].Description)
	require.Equal(t, "expense", txs.Transactions[0].Kind)
	require.Equal(t, "books", txs.Transactions[1].Description)
	require.Equal(t, "salary", txs.Transactions[2].Description)
	require.Equal(t, "income", txs.Transactions[2].Kind)
	require.Equal(t, "15000", txs.Transactions[0].Amount.String())
}

func TestDocumentCSV(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	list := decode[documentListResponse](t, ts.do(t, http.MethodGet, "/api/documents", ""))
	id := list.Documents[0].ID

	rr := ts.do(t, http.MethodGet, "/api/documents/"+itoa(id)+"/csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, rr.Header().Get("Content-Disposition"), `"July 2024.csv"`)

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "name,amount,description,category,expense/income", lines[0])
	require.Equal(t, "coffee,15000,coffee,food,expense", lines[1])
	require.Equal(t, "salary,500000,salary,work,income", lines[3])
}

func TestAnalysisEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	rr := ts.do(t, http.MethodGet, "/api/analysis/expenses", "")
	require.Equal(t, http.StatusOK, rr.Code)
	analysis := decode[analysisResponse](t, rr)
	require.Equal(t, "expense", analysis.Kind)
	require.Equal(t, "135000", analysis.Total.String())
	require.Equal(t, 1, analysis.DocumentCount)
	require.Equal(t, 2, analysis.TransactionCount)
	require.Len(t, analysis.ByCategory, 2)
	require.Equal(t, "education", analysis.ByCategory[0].Category)
	require.Equal(t, "120000", analysis.ByCategory[0].Total.String())

	// Second call is served from cache and matches byte for byte
	again := ts.do(t, http.MethodGet, "/api/analysis/expenses", "")
	require.Equal(t, rr.Body.String(), again.Body.String())

	rr = ts.do(t, http.MethodGet, "/api/analysis/income?year=2024&month=7", "")
	require.Equal(t, http.StatusOK, rr.Code)
	analysis = decode[analysisResponse](t, rr)
	require.Equal(t, "income", analysis.Kind)
	require.Equal(t, "500000", analysis.Total.String())
	require.Equal(t, 2024, analysis.Year)
	require.Equal(t, 7, analysis.Month)

	rr = ts.do(t, http.MethodGet, "/api/analysis/expenses?month=99", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	rr := ts.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	dashboard := decode[dashboardResponse](t, rr)
	require.Equal(t, 1, dashboard.DocumentCount)
	require.Equal(t, "135000", dashboard.TotalExpenses.String())
	require.Equal(t, "500000", dashboard.TotalIncome.String())
	require.Equal(t, "365000", dashboard.LatestNetIncome.String())
	require.Len(t, dashboard.RecentDocuments, 1)
}

func TestSyncFlushesCaches(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	dashboard := decode[dashboardResponse](t, ts.do(t, http.MethodGet, "/api/dashboard", ""))
	require.Equal(t, 1, dashboard.DocumentCount)

	// A new month appears in the source; the next sync must evict the
	// cached dashboard even though its TTL has not expired.
	ts.source.Add("August 2024", budgetGrid())
	ts.syncInline(t)

	dashboard = decode[dashboardResponse](t, ts.do(t, http.MethodGet, "/api/dashboard", ""))
	require.Equal(t, 2, dashboard.DocumentCount)
}

func TestSyncTargetedDocument(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)

	rr := ts.do(t, http.MethodPost, "/api/sync", `{"document": "July 2024"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	outcome := decode[outcomeResponse](t, rr)
	require.Equal(t, "updated", outcome.Status)
	require.Equal(t, "July 2024", outcome.Document)

	rr = ts.do(t, http.MethodPost, "/api/sync", `{"document": "missing"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/sync", `{not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSyncQueued(t *testing.T) {
	ts := newTestServer(t, true)

	rr := ts.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusAccepted, rr.Code)
	queued := decode[map[string]string](t, rr)
	require.Equal(t, "queued", queued["status"])
	require.Equal(t, []string{"api"}, ts.publisher.requestedBy)

	// No documents were stored because the queue consumer never ran
	list := decode[documentListResponse](t, ts.do(t, http.MethodGet, "/api/documents", ""))
	require.Zero(t, list.Total)
}

func TestSyncQueueUnavailable(t *testing.T) {
	ts := newTestServer(t, true)
	ts.publisher.err = errors.New("broker down")

	rr := ts.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodDelete, "/api/documents", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.syncInline(t)
	ts.do(t, http.MethodGet, "/api/dashboard", "")

	rr := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "http_requests_total")
	require.Contains(t, body, `syncs_total{mode="inline"} 1`)
	require.Contains(t, body, "cache_misses_total 1")
	require.Contains(t, body, "uptime_seconds")
}
