// internal/risk/client.go
package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tender-workers/internal/common/config"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
)

var (
	ErrAnalysisTimeout = errors.New("RISK_API_TIMEOUT")
	ErrAnalysisFailed  = errors.New("RISK_ANALYSIS_FAILED")
	ErrEmptyResult     = errors.New("EMPTY_RISK_RESULT")
)

// Client talks to the external LLM risk-analysis service. The service
// accepts a batch of tenders; this system always sends exactly one, so
// only the first result of the envelope is consumed.
type Client struct {
	cfg    config.RiskAPIConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg config.RiskAPIConfig, log logger.Logger) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		cfg: cfg,
		// No client timeout: the per-request context owns the deadline.
		client: &http.Client{},
		logger: log,
	}
}

// AnalysisOutcome carries the analysis for the requested tender plus
// the report references the service generated alongside it.
type AnalysisOutcome struct {
	Analysis   models.RiskAnalysis
	TenderID   string
	TenderName string
	PDFReport  string
	TXTReport  string
	JSONReport string
}

// Analyze submits one tender for analysis and waits for the result.
func (c *Client) Analyze(ctx context.Context, payload models.RiskTenderPayload) (*AnalysisOutcome, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
		defer cancel()
	}

	request := models.RiskAnalysisRequest{
		Tenders: []models.RiskTenderPayload{payload},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	envelope, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if len(envelope.Results) == 0 {
		return nil, ErrEmptyResult
	}

	first := envelope.Results[0]
	c.logger.Info("Risk analysis completed", map[string]interface{}{
		"tenderId":  first.TenderID,
		"status":    envelope.Status,
		"riskLevel": first.Analysis.OverallRiskLevel,
	})

	return &AnalysisOutcome{
		Analysis:   first.Analysis,
		TenderID:   first.TenderID,
		TenderName: first.TenderName,
		PDFReport:  envelope.PDFReport,
		TXTReport:  envelope.TXTReport,
		JSONReport: envelope.JSONReport,
	}, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*models.RiskAnalysisResponse, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrAnalysisTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/analyze", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			status := resp.StatusCode
			lastErr = fmt.Errorf("status %d", status)
			resp = nil
			// Client errors won't improve with retries.
			if status >= 400 && status < 500 {
				return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, lastErr)
			}
		}

		if ctx.Err() != nil {
			return nil, ErrAnalysisTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrAnalysisTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrAnalysisFailed)
	}
	defer resp.Body.Close()

	var envelope models.RiskAnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrAnalysisFailed, err)
	}

	return &envelope, nil
}
