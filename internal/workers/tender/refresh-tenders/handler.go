// internal/workers/tender/refresh-tenders/handler.go
package refreshtenders

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const TaskType = "refresh-tenders"

var (
	ErrRefreshFailed = errors.New("TENDER_REFRESH_FAILED")
	ErrQueryFailed   = errors.New("QUERY_EXECUTION_FAILED")
)

// Indexer writes one tender document into the search index.
type Indexer interface {
	Index(ctx context.Context, id string, doc map[string]interface{}) error
}

// CacheInvalidator drops all cached search corpora after a reindex.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

type Handler struct {
	config      *Config
	db          *sql.DB
	indexer     Indexer
	invalidator CacheInvalidator
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, indexer Indexer, invalidator CacheInvalidator, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		indexer:     indexer,
		invalidator: invalidator,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		errorCode := "TENDER_REFRESH_FAILED"
		if errors.Is(err, ErrQueryFailed) {
			errorCode = "QUERY_EXECUTION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error(), 2)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.config.BatchSize
	}

	rows, err := h.queryRecords(ctx, input.Source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexed, skipped := 0, 0
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQueryFailed, err)
		}

		var record models.TenderRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			skipped++
			continue
		}

		id := search.DocumentID(record)
		if id == "" {
			skipped++
			continue
		}

		if err := h.indexer.Index(ctx, id, search.BuildDocument(record)); err != nil {
			return nil, fmt.Errorf("%w: index %s: %v", ErrRefreshFailed, id, err)
		}
		indexed++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	invalidated := false
	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAll(ctx); err != nil {
			// A stale cache is bounded by its TTL, so log and move on.
			h.logger.Warn("cache invalidation failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			invalidated = true
		}
	}

	h.logger.Info("refresh completed", map[string]interface{}{
		"indexed": indexed,
		"skipped": skipped,
	})

	return &Output{
		Indexed:     indexed,
		Skipped:     skipped,
		Invalidated: invalidated,
		RefreshedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) queryRecords(ctx context.Context, source string, limit int) (*sql.Rows, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if source != "" {
		rows, err = h.db.QueryContext(ctx,
			`SELECT data FROM tender_records WHERE source = $1 ORDER BY ingested_at DESC LIMIT $2`,
			source, limit)
	} else {
		rows, err = h.db.QueryContext(ctx,
			`SELECT data FROM tender_records ORDER BY ingested_at DESC LIMIT $1`,
			limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return rows, nil
}

// ESIndexer is the production Indexer writing into Elasticsearch.
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (e *ESIndexer) Index(ctx context.Context, id string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned %s", res.Status())
	}
	return nil
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
