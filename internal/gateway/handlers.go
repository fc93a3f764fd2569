// internal/gateway/handlers.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/risk"
	"tender-workers/internal/tender"
)

// Searcher executes a normalized search query.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error)
}

// Handlers bundles the gateway's HTTP handlers around the search
// service and the single risk session.
type Handlers struct {
	searcher Searcher
	session  *risk.Session
	logger   logger.Logger
	now      func() time.Time
}

func NewHandlers(searcher Searcher, session *risk.Session, log logger.Logger) *Handlers {
	return &Handlers{
		searcher: searcher,
		session:  session,
		logger:   log,
		now:      time.Now,
	}
}

// searchRequest mirrors the UI's search form: free text plus the
// multi-select filter blocks.
type searchRequest struct {
	Query    string   `json:"query"`
	Category []string `json:"category"`
	Method   []string `json:"method"`
	Purchase []string `json:"purchaseType"`
	Features []string `json:"features"`
	Sort     string   `json:"amountSort"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

type searchResponse struct {
	Items    []models.CanonicalTenderView `json:"items"`
	Raw      []models.TenderRecord        `json:"records"`
	Total    int                          `json:"total"`
	Page     int                          `json:"page"`
	PageSize int                          `json:"pageSize"`
	Pages    int                          `json:"pages"`
	Window   []tender.PageItem            `json:"paginationWindow"`
}

func (h *Handlers) SearchTenders(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := tender.NewFilterState()
	state.Keywords = req.Query
	for _, v := range req.Category {
		state.SelectSubjectType(v)
	}
	for _, v := range req.Method {
		state.SelectMethod(v)
	}
	for _, v := range req.Purchase {
		state.SelectPurchaseType(v)
	}
	for _, v := range req.Features {
		state.SelectFeature(v)
	}

	switch sort := strings.ToLower(strings.TrimSpace(req.Sort)); sort {
	case "":
	case string(tender.SortAscending):
		state.AmountSort = tender.SortAscending
	case string(tender.SortDescending):
		state.AmountSort = tender.SortDescending
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amountSort %q", req.Sort))
		return
	}

	query := tender.BuildQuery(state, req.Page, req.PageSize)
	resp, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusBadGateway, "search backend unavailable")
		return
	}

	now := h.now()
	views := make([]models.CanonicalTenderView, 0, len(resp.Items))
	for _, record := range resp.Items {
		views = append(views, tender.View(record, now))
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:    views,
		Raw:      resp.Items,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Pages:    resp.Pages,
		Window:   tender.Window(resp.Page, resp.Pages),
	})
}

type analysisRequest struct {
	Tender models.TenderRecord `json:"tender"`
}

func (h *Handlers) RequestAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tender) == 0 {
		writeError(w, http.StatusBadRequest, "tender record is required")
		return
	}

	payload := tender.BuildAnalysisPayload(req.Tender)
	if payload.ID == "" {
		writeError(w, http.StatusBadRequest, "tender record carries no identifier")
		return
	}

	snap := h.session.Request(payload)
	writeJSON(w, http.StatusAccepted, snap)
}

func (h *Handlers) AnalysisStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	err := h.session.ExportPDF()
	switch {
	case errors.Is(err, risk.ErrExportUnavailable):
		writeError(w, http.StatusConflict, "no completed analysis to export")
	case errors.Is(err, risk.ErrExportInProgress):
		writeError(w, http.StatusConflict, "export already in progress")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, h.session.Snapshot())
	}
}

func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	if snap.Report == nil {
		writeError(w, http.StatusNotFound, "no report available")
		return
	}

	w.Header().Set("Content-Type", snap.Report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Report.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Report.Content)
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.session.Close()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
