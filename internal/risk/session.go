// internal/risk/session.go
package risk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/common/metrics"
	"tender-workers/internal/models"
)

// State is the analysis lifecycle state of the session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// ExportState tracks the PDF export independently of the analysis
// state: an export never changes the analysis result it exports.
type ExportState string

const (
	ExportIdle    ExportState = "idle"
	ExportRunning ExportState = "running"
)

var (
	ErrExportUnavailable = errors.New("no completed analysis to export")
	ErrExportInProgress  = errors.New("export already in progress")
)

// Analyzer produces a risk analysis for one tender.
type Analyzer interface {
	Analyze(ctx context.Context, payload models.RiskTenderPayload) (*AnalysisOutcome, error)
}

// PDFExporter renders a completed analysis into a downloadable report.
type PDFExporter interface {
	Export(ctx context.Context, payload models.RiskTenderPayload, outcome *AnalysisOutcome) (*ExportedReport, error)
}

// ExportedReport is a rendered report artifact.
type ExportedReport struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Snapshot is a point-in-time view of the session, safe to hand to
// callers after the lock is released.
type Snapshot struct {
	State       State                `json:"state"`
	ExportState ExportState          `json:"exportState"`
	TenderID    string               `json:"tenderId,omitempty"`
	TenderName  string               `json:"tenderName,omitempty"`
	Analysis    *models.RiskAnalysis `json:"analysis,omitempty"`
	Error       string               `json:"error,omitempty"`
	ExportError string               `json:"exportError,omitempty"`
	Report      *ExportedReport      `json:"report,omitempty"`
	StartedAt   time.Time            `json:"startedAt,omitempty"`
	CompletedAt time.Time            `json:"completedAt,omitempty"`
}

// Session is the single live risk-analysis dialog. At most one
// analysis is meaningful at a time: a new request supersedes the
// previous one, and responses for superseded or closed requests are
// dropped when they arrive. In-flight HTTP calls are not cancelled;
// their results are simply ignored.
type Session struct {
	mu       sync.Mutex
	analyzer Analyzer
	exporter PDFExporter
	logger   logger.Logger

	state       State
	exportState ExportState
	token       string
	payload     models.RiskTenderPayload
	analysis    *models.RiskAnalysis
	outcome     *AnalysisOutcome
	errMessage  string
	exportError string
	report      *ExportedReport
	startedAt   time.Time
	completedAt time.Time
}

func NewSession(analyzer Analyzer, exporter PDFExporter, log logger.Logger) *Session {
	return &Session{
		analyzer:    analyzer,
		exporter:    exporter,
		logger:      log,
		state:       StateIdle,
		exportState: ExportIdle,
	}
}

// Request starts an analysis for the given tender payload. Any
// previous request, finished or not, is superseded: the session moves
// to loading immediately and earlier in-flight results are discarded
// on arrival.
func (s *Session) Request(payload models.RiskTenderPayload) Snapshot {
	s.mu.Lock()
	token := uuid.NewString()
	s.token = token
	s.state = StateLoading
	s.payload = payload
	s.analysis = nil
	s.outcome = nil
	s.errMessage = ""
	s.exportState = ExportIdle
	s.exportError = ""
	s.report = nil
	s.startedAt = time.Now()
	s.completedAt = time.Time{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metrics.RiskSessionTransitions.WithLabelValues(string(StateLoading)).Inc()
	s.logger.Info("Risk analysis requested", map[string]interface{}{
		"tenderId": payload.ID,
	})

	go s.run(token, payload)

	return snap
}

// run executes the analysis off the caller's goroutine. The background
// context is deliberate: abandoning a request must not cancel the
// still-running HTTP call of a session that was since reused.
func (s *Session) run(token string, payload models.RiskTenderPayload) {
	outcome, err := s.analyzer.Analyze(context.Background(), payload)
	s.complete(token, outcome, err)
}

func (s *Session) complete(token string, outcome *AnalysisOutcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != token || s.state != StateLoading {
		s.logger.Debug("Dropping stale analysis result", map[string]interface{}{
			"state": string(s.state),
		})
		return
	}

	s.completedAt = time.Now()

	if err != nil {
		s.state = StateError
		s.errMessage = analysisErrorMessage(err)
		metrics.RiskSessionTransitions.WithLabelValues(string(StateError)).Inc()
		s.logger.Error("Risk analysis failed", map[string]interface{}{
			"tenderId": s.payload.ID,
			"error":    err.Error(),
		})
		return
	}

	s.state = StateSuccess
	s.outcome = outcome
	s.analysis = &outcome.Analysis
	metrics.RiskSessionTransitions.WithLabelValues(string(StateSuccess)).Inc()
}

// analysisErrorMessage maps transport errors to the message shown to
// the user; unexpected errors get a generic fallback.
func analysisErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAnalysisTimeout):
		return "Сервис анализа не ответил вовремя. Попробуйте ещё раз."
	case errors.Is(err, ErrEmptyResult):
		return "Сервис анализа не вернул результат по этому тендеру."
	default:
		return "Не удалось выполнить анализ рисков. Попробуйте ещё раз."
	}
}

// Close resets the session to idle. A result for a request that was
// open at close time is dropped when it arrives; closing never
// resurrects the dialog.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.state = StateIdle
	s.exportState = ExportIdle
	s.payload = models.RiskTenderPayload{}
	s.analysis = nil
	s.outcome = nil
	s.errMessage = ""
	s.exportError = ""
	s.report = nil
	s.startedAt = time.Time{}
	s.completedAt = time.Time{}

	metrics.RiskSessionTransitions.WithLabelValues(string(StateIdle)).Inc()
}

// ExportPDF starts rendering the current successful analysis into a
// PDF. Only a completed analysis can be exported, and only one export
// runs at a time.
func (s *Session) ExportPDF() error {
	s.mu.Lock()

	if s.state != StateSuccess {
		s.mu.Unlock()
		return ErrExportUnavailable
	}
	if s.exportState == ExportRunning {
		s.mu.Unlock()
		return ErrExportInProgress
	}

	token := s.token
	payload := s.payload
	outcome := s.outcome
	s.exportState = ExportRunning
	s.exportError = ""
	s.report = nil
	s.mu.Unlock()

	go s.runExport(token, payload, outcome)
	return nil
}

func (s *Session) runExport(token string, payload models.RiskTenderPayload, outcome *AnalysisOutcome) {
	report, err := s.exporter.Export(context.Background(), payload, outcome)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != token {
		// Session was closed or reused while the export ran.
		return
	}

	s.exportState = ExportIdle
	if err != nil {
		s.exportError = "Не удалось сформировать PDF-отчёт."
		s.logger.Error("Report export failed", map[string]interface{}{
			"tenderId": payload.ID,
			"error":    err.Error(),
		})
		return
	}
	s.report = report
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		ExportState: s.exportState,
		TenderID:    s.payload.ID,
		TenderName:  s.payload.Name,
		Error:       s.errMessage,
		ExportError: s.exportError,
		Report:      s.report,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
	if s.analysis != nil {
		copied := *s.analysis
		snap.Analysis = &copied
	}
	return snap
}
