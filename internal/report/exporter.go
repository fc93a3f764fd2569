// internal/report/exporter.go
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tender-workers/internal/common/config"
	commonhttp "tender-workers/internal/common/http"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/risk"
)

// maxReportSize caps downloaded artifacts at 32 MiB.
const maxReportSize = 32 << 20

// Exporter renders completed risk analyses to PDF via the report
// service. When the analysis response already carries a generated
// report reference, the artifact is fetched directly; otherwise a
// fresh render is requested.
type Exporter struct {
	cfg    config.ReportConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewExporter(cfg config.ReportConfig, log logger.Logger) *Exporter {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if cfg.Timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Exporter{
		cfg:    cfg,
		client: commonhttp.NewClient(timeout),
		logger: log,
	}
}

// Export implements risk.PDFExporter.
func (e *Exporter) Export(ctx context.Context, payload models.RiskTenderPayload, outcome *risk.AnalysisOutcome) (*risk.ExportedReport, error) {
	var (
		content []byte
		err     error
	)

	if outcome != nil && outcome.PDFReport != "" {
		content, err = e.fetch(ctx, outcome.PDFReport)
	} else {
		content, err = e.render(ctx, payload, outcome)
	}
	if err != nil {
		return nil, err
	}

	return &risk.ExportedReport{
		FileName:    reportFileName(payload.ID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// fetch downloads an already-generated report artifact by reference.
func (e *Exporter) fetch(ctx context.Context, reference string) ([]byte, error) {
	url := e.cfg.BaseURL + "/reports/" + strings.TrimPrefix(reference, "reports/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report service returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxReportSize))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	e.logger.Info("Report fetched", map[string]interface{}{
		"reference": reference,
		"bytes":     len(content),
	})
	return content, nil
}

// render asks the report service to generate a PDF from the analysis.
func (e *Exporter) render(ctx context.Context, payload models.RiskTenderPayload, outcome *risk.AnalysisOutcome) ([]byte, error) {
	request := map[string]interface{}{
		"tender": payload,
	}
	if outcome != nil {
		request["analysis"] = outcome.Analysis
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report service returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxReportSize))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	e.logger.Info("Report generated", map[string]interface{}{
		"tenderId": payload.ID,
		"bytes":    len(content),
	})
	return content, nil
}

func reportFileName(tenderID string) string {
	if tenderID == "" {
		tenderID = "tender"
	}
	return fmt.Sprintf("tender_%s_risk_report.pdf", tenderID)
}
