// internal/workers/risk/analyze-tender/handler.go
package analyzetender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/risk"
	"tender-workers/internal/tender"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "analyze-tender"

var ErrMissingTender = errors.New("INVALID_TENDER_RECORD")

type Handler struct {
	config   *Config
	analyzer risk.Analyzer
	logger   logger.Logger
}

func NewHandler(config *Config, analyzer risk.Analyzer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		analyzer: analyzer,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "RISK_ANALYSIS_FAILED"
		retries := int32(1)
		switch {
		case errors.Is(err, ErrMissingTender):
			errorCode = "INVALID_TENDER_RECORD"
			retries = 0
		case errors.Is(err, risk.ErrAnalysisTimeout):
			errorCode = "RISK_API_TIMEOUT"
		case errors.Is(err, risk.ErrEmptyResult):
			errorCode = "EMPTY_RISK_RESULT"
			retries = 0
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Tender) == 0 {
		return nil, fmt.Errorf("%w: empty tender record", ErrMissingTender)
	}

	payload := tender.BuildAnalysisPayload(input.Tender)
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: record carries no identifier", ErrMissingTender)
	}

	outcome, err := h.analyzer.Analyze(ctx, payload)
	if err != nil {
		return nil, err
	}

	h.logger.Info("analysis completed", map[string]interface{}{
		"tenderId":  payload.ID,
		"riskLevel": outcome.Analysis.OverallRiskLevel,
	})

	name := outcome.TenderName
	if name == "" {
		name = payload.Name
	}

	return &Output{
		TenderID:   payload.ID,
		TenderName: name,
		Analysis:   outcome.Analysis,
		PDFReport:  outcome.PDFReport,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
