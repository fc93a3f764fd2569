// internal/workers/tender/search-tenders/handler.go
package searchtenders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/tender"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-tenders"

var (
	ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")
	ErrSearchFailed        = errors.New("SEARCH_QUERY_FAILED")
)

var validSortValues = map[string]bool{
	"asc": true, "desc": true,
}

// Searcher executes a normalized query against the search backend.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	logger   logger.Logger
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		searcher: searcher,
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
		errorCode := "SEARCH_QUERY_FAILED"
		retries := int32(2)
		if errors.Is(err, ErrInvalidFilterFormat) {
			errorCode = "INVALID_FILTER_FORMAT"
			retries = 0
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	state, err := h.buildFilterState(input)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = h.config.PageSize
	}
	query := tender.BuildQuery(state, input.Page, pageSize)

	resp, err := h.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	h.logger.Info("search completed", map[string]interface{}{
		"total": resp.Total,
		"page":  resp.Page,
		"pages": resp.Pages,
	})

	return &Output{
		Results: *resp,
		Window:  tender.Window(resp.Page, resp.Pages),
	}, nil
}

// buildFilterState normalizes the loosely-typed filters block from the
// process variables into a filter selection.
func (h *Handler) buildFilterState(input *Input) (tender.FilterState, error) {
	state := tender.NewFilterState()
	state.Keywords = strings.TrimSpace(input.Query)

	if input.Filters == nil {
		return state, nil
	}

	for _, v := range parseStringArray(input.Filters["category"]) {
		state.SelectSubjectType(v)
	}
	for _, v := range parseStringArray(input.Filters["method"]) {
		state.SelectMethod(v)
	}
	for _, v := range parseStringArray(input.Filters["purchaseType"]) {
		state.SelectPurchaseType(v)
	}
	for _, v := range parseStringArray(input.Filters["features"]) {
		state.SelectFeature(v)
	}

	if raw, ok := input.Filters["amountSort"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return state, fmt.Errorf("%w: amountSort must be a string", ErrInvalidFilterFormat)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			if !validSortValues[s] {
				return state, fmt.Errorf("%w: invalid amountSort '%s'", ErrInvalidFilterFormat, s)
			}
			state.AmountSort = tender.AmountSort(s)
		}
	}

	return state, nil
}

func parseStringArray(raw interface{}) []string {
	result := []string{}
	if raw == nil {
		return result
	}

	seen := make(map[string]bool)

	switch v := raw.(type) {
	case string:
		for _, s := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(s)
			if trimmed != "" && !seen[trimmed] {
				result = append(result, trimmed)
				seen[trimmed] = true
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				trimmed := strings.TrimSpace(s)
				if trimmed != "" && !seen[trimmed] {
					result = append(result, trimmed)
					seen[trimmed] = true
				}
			}
		}
	case []string:
		for _, s := range v {
			trimmed := strings.TrimSpace(s)
			if trimmed != "" && !seen[trimmed] {
				result = append(result, trimmed)
				seen[trimmed] = true
			}
		}
	}

	return result
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
