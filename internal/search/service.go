// internal/search/service.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tender-workers/internal/common/config"
	"tender-workers/internal/common/errors"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/common/metrics"
	"tender-workers/internal/models"
	"tender-workers/internal/tender"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

// Service executes normalized tender searches against Elasticsearch
// and caches the full result corpus per unique query in Redis, so
// that paging through a result set never re-runs the backend query.
type Service struct {
	es     *elasticsearch.Client
	cache  *redis.Client
	cfg    config.SearchConfig
	logger logger.Logger
}

func NewService(es *elasticsearch.Client, cache *redis.Client, cfg config.SearchConfig, log logger.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = tender.DefaultPageSize
	}
	if cfg.MaxFetch <= 0 {
		cfg.MaxFetch = 500
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "tender-search"
	}
	return &Service{es: es, cache: cache, cfg: cfg, logger: log}
}

// Search runs a query and returns one page of results. The response's
// Page and Pages are authoritative: an out-of-range requested page is
// clamped, and an empty result set reports page 1 of 1.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.PageSize
	}

	corpus, err := s.loadCorpus(ctx, q)
	if err != nil {
		return nil, err
	}

	total := len(corpus)
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	if total == 0 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]models.TenderRecord, 0, end-start)
	items = append(items, corpus[start:end]...)

	return &models.SearchResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

// loadCorpus returns the full (capped) result set for a query,
// consulting the cache first.
func (s *Service) loadCorpus(ctx context.Context, q models.SearchQuery) ([]models.TenderRecord, error) {
	key, err := s.cacheKey(q)
	if err != nil {
		return nil, errors.NewInvalidFilterError(err.Error())
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var corpus []models.TenderRecord
			if err := json.Unmarshal([]byte(cached), &corpus); err == nil {
				metrics.SearchCacheHits.WithLabelValues("hit").Inc()
				return corpus, nil
			}
			// Corrupt entry: drop it and fall through to the backend.
			_ = s.cache.Del(ctx, key).Err()
		}
		metrics.SearchCacheHits.WithLabelValues("miss").Inc()
	} else {
		metrics.SearchCacheHits.WithLabelValues("bypass").Inc()
	}

	corpus, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(corpus); err == nil {
			ttl := time.Duration(s.cfg.CacheTTL) * time.Second
			if err := s.cache.Set(ctx, key, encoded, ttl).Err(); err != nil {
				s.logger.Warn("Failed to cache search results", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return corpus, nil
}

// cacheKey derives the cache key from the query's search-relevant
// parts. Page and page size are excluded: pagination slices the same
// cached corpus.
func (s *Service) cacheKey(q models.SearchQuery) (string, error) {
	canonical := models.SearchQuery{
		Query:   q.Query,
		Filters: q.Filters,
	}
	encoded, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to encode query: %w", err)
	}
	return s.cfg.CachePrefix + ":" + string(encoded), nil
}

// esSearchResult is the subset of the Elasticsearch response we read.
type esSearchResult struct {
	Hits struct {
		Hits []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *Service) query(ctx context.Context, q models.SearchQuery) ([]models.TenderRecord, error) {
	body := BuildSearchBody(q)
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	size := s.cfg.MaxFetch
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.cfg.Index),
		s.es.Search.WithBody(bytes.NewReader(encoded)),
		s.es.Search.WithSize(size),
		s.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewSearchTimeoutError(ctx.Err().Error())
		}
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, errors.NewIndexNotFoundError(s.cfg.Index)
		}
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	var result esSearchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	corpus := make([]models.TenderRecord, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		corpus = append(corpus, extractRecord(hit.Source))
	}

	s.logger.Debug("Search executed", map[string]interface{}{
		"index":   s.cfg.Index,
		"results": len(corpus),
	})

	return corpus, nil
}

// extractRecord returns the raw portal record embedded in an index
// document, falling back to the document itself for legacy documents
// indexed before the record field existed.
func extractRecord(source map[string]interface{}) models.TenderRecord {
	if raw, ok := source[docFieldRecord].(map[string]interface{}); ok {
		return models.TenderRecord(raw)
	}
	return models.TenderRecord(source)
}

// InvalidateAll removes every cached result corpus. Called after the
// index is rebuilt so stale corpora never outlive a refresh.
func (s *Service) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	pattern := s.cfg.CachePrefix + ":*"
	var cursor uint64
	for {
		keys, next, err := s.cache.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := s.cache.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// BuildDocument converts a raw portal record into the index document
// the refresh worker writes. Normalized fields drive matching and
// sorting; the raw record rides along for display.
func BuildDocument(record models.TenderRecord) map[string]interface{} {
	doc := map[string]interface{}{
		docFieldID:           tender.ResolveString(record, tender.FieldID),
		docFieldTitle:        tender.ResolveString(record, tender.FieldTitle),
		docFieldOrganizer:    tender.ResolveString(record, tender.FieldOrganizer),
		docFieldMethod:       tender.ResolveString(record, tender.FieldMethod),
		docFieldPurchaseType: tender.ResolveString(record, tender.FieldPurchaseType),
		docFieldCategory:     tender.ResolveString(record, tender.FieldCategory),
		docFieldRecord:       map[string]interface{}(record),
	}

	if features := tender.FeatureList(record); len(features) > 0 {
		doc[docFieldFeatures] = features
	}

	if amount := tender.ParseAmount(record); amount > 0 {
		doc[docFieldAmount] = amount
	}

	return doc
}

// DocumentID returns the index id for a record, or "" when the record
// carries no usable identifier and must be skipped.
func DocumentID(record models.TenderRecord) string {
	return strings.TrimSpace(tender.ResolveString(record, tender.FieldID))
}
