// internal/gateway/server_test.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tender-workers/internal/common/config"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/risk"
)

type fakeSearcher struct {
	lastQuery models.SearchQuery
	response  *models.SearchResponse
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

// blockingAnalyzer parks every call until released.
type blockingAnalyzer struct {
	mu      sync.Mutex
	waiting []chan result
}

type result struct {
	outcome *risk.AnalysisOutcome
	err     error
}

func (b *blockingAnalyzer) Analyze(_ context.Context, _ models.RiskTenderPayload) (*risk.AnalysisOutcome, error) {
	ch := make(chan result)
	b.mu.Lock()
	b.waiting = append(b.waiting, ch)
	b.mu.Unlock()
	r := <-ch
	return r.outcome, r.err
}

func (b *blockingAnalyzer) release(t *testing.T, i int, outcome *risk.AnalysisOutcome, err error) {
	t.Helper()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.waiting) > i
	}, time.Second, 5*time.Millisecond)

	b.mu.Lock()
	ch := b.waiting[i]
	b.mu.Unlock()
	ch <- result{outcome: outcome, err: err}
}

type nopExporter struct{}

func (nopExporter) Export(_ context.Context, _ models.RiskTenderPayload, _ *risk.AnalysisOutcome) (*risk.ExportedReport, error) {
	return &risk.ExportedReport{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-"),
	}, nil
}

func newTestServer(t *testing.T, searcher *fakeSearcher, analyzer risk.Analyzer) *Server {
	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	session := risk.NewSession(analyzer, nopExporter{}, log)
	handlers := NewHandlers(searcher, session, log)
	return NewServer(config.GatewayConfig{Address: ":0"}, handlers, log)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ==========================
// 1. Search Endpoint
// ==========================

func TestSearchEndpoint_NormalizesAndReturnsViews(t *testing.T) {
	searcher := &fakeSearcher{response: &models.SearchResponse{
		Items: []models.TenderRecord{
			{"ID": "1", "Наименование объявления": "Ремонт", "Организатор": "АО Тест"},
		},
		Total: 1, Page: 1, PageSize: 15, Pages: 1,
	}}
	server := newTestServer(t, searcher, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/tenders/search", map[string]interface{}{
		"query":  "  ремонт  ",
		"method": []string{"Тендер", "Тендер"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, searcher.lastQuery.Query)
	assert.Equal(t, "ремонт", *searcher.lastQuery.Query)
	assert.Equal(t, []string{"Тендер"}, searcher.lastQuery.Filters.Method)
	assert.Nil(t, searcher.lastQuery.Filters.Features)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Ремонт", resp.Items[0].Title)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Window, 1)
}

func TestSearchEndpoint_SortNormalization(t *testing.T) {
	tests := []struct {
		name string
		sort string
		want interface{}
	}{
		{name: "omitted sort means unsorted", sort: "", want: nil},
		{name: "blank sort means unsorted", sort: "   ", want: nil},
		{name: "uppercase DESC accepted", sort: "DESC", want: "desc"},
		{name: "asc accepted", sort: "asc", want: "asc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{response: &models.SearchResponse{Page: 1, Pages: 1}}
			server := newTestServer(t, searcher, &blockingAnalyzer{})

			rec := doJSON(t, server.Router(), http.MethodPost, "/api/tenders/search", map[string]interface{}{
				"amountSort": tt.sort,
			})
			require.Equal(t, http.StatusOK, rec.Code)

			if tt.want == nil {
				assert.Nil(t, searcher.lastQuery.Filters.AmountSort)
			} else {
				require.NotNil(t, searcher.lastQuery.Filters.AmountSort)
				assert.Equal(t, tt.want, *searcher.lastQuery.Filters.AmountSort)
			}
		})
	}
}

func TestSearchEndpoint_RejectsInvalidSort(t *testing.T) {
	server := newTestServer(t, &fakeSearcher{}, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/tenders/search", map[string]interface{}{
		"amountSort": "cheapest",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_BackendFailure(t *testing.T) {
	server := newTestServer(t, &fakeSearcher{err: assert.AnError}, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/tenders/search", map[string]interface{}{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// ==========================
// 2. Risk Session Endpoints
// ==========================

func TestRiskEndpoints_FullLifecycle(t *testing.T) {
	analyzer := &blockingAnalyzer{}
	server := newTestServer(t, &fakeSearcher{}, analyzer)
	router := server.Router()

	// Request analysis
	rec := doJSON(t, router, http.MethodPost, "/api/v1/tender-risk", map[string]interface{}{
		"tender": map[string]interface{}{"ID": "1", "Наименование объявления": "Ремонт"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var snap risk.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, risk.StateLoading, snap.State)

	// Complete it
	analyzer.release(t, 0, &risk.AnalysisOutcome{
		TenderID: "1",
		Analysis: models.RiskAnalysis{OverallRiskLevel: "LOW"},
	}, nil)

	require.Eventually(t, func() bool {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/tender-risk", nil)
		var s risk.Snapshot
		_ = json.Unmarshal(rec.Body.Bytes(), &s)
		return s.State == risk.StateSuccess
	}, time.Second, 5*time.Millisecond)

	// Export and download
	rec = doJSON(t, router, http.MethodPost, "/api/v1/tender-risk/export", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/tender-risk/report", nil)
		return rec.Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tender-risk/report", nil)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("%PDF-"), rec.Body.Bytes())

	// Close resets everything
	rec = doJSON(t, router, http.MethodPost, "/api/v1/tender-risk/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, risk.StateIdle, snap.State)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tender-risk/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskEndpoint_RejectsRecordWithoutID(t *testing.T) {
	server := newTestServer(t, &fakeSearcher{}, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/tender-risk", map[string]interface{}{
		"tender": map[string]interface{}{"Организатор": "АО Тест"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint_ConflictBeforeSuccess(t *testing.T) {
	server := newTestServer(t, &fakeSearcher{}, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/tender-risk/export", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeSearcher{}, &blockingAnalyzer{})

	rec := doJSON(t, server.Router(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
