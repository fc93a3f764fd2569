// internal/search/queries.go
package search

import (
	"strings"

	"tender-workers/internal/models"
)

// Index document fields written by the refresh worker. The raw portal
// record is carried alongside the normalized fields so search results
// can hand back the original, inconsistently-keyed record untouched.
const (
	docFieldID           = "id"
	docFieldTitle        = "title"
	docFieldOrganizer    = "organizer"
	docFieldCategory     = "category"
	docFieldMethod       = "method"
	docFieldPurchaseType = "purchase_type"
	docFieldFeatures     = "features"
	docFieldAmount       = "amount"
	docFieldRecord       = "record"
)

// BuildSearchBody builds the Elasticsearch request body for a
// normalized tender search query. Nil filter slices add no clause at
// all; empty text adds no multi_match.
func BuildSearchBody(q models.SearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Query != nil {
		if text := strings.TrimSpace(*q.Query); text != "" {
			mustClauses = append(mustClauses, map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  text,
					"fields": []string{docFieldTitle + "^3", docFieldOrganizer + "^2", docFieldID},
					"type":   "best_fields",
				},
			})
		}
	}

	filterClauses = appendTermsFilter(filterClauses, docFieldCategory, q.Filters.Category)
	filterClauses = appendTermsFilter(filterClauses, docFieldMethod, q.Filters.Method)
	filterClauses = appendTermsFilter(filterClauses, docFieldPurchaseType, q.Filters.PurchaseType)
	filterClauses = appendTermsFilter(filterClauses, docFieldFeatures, q.Filters.Features)

	var query map[string]interface{}
	if len(mustClauses) == 0 && len(filterClauses) == 0 {
		query = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	} else {
		boolQuery := map[string]interface{}{}
		if len(mustClauses) > 0 {
			boolQuery["must"] = mustClauses
		}
		if len(filterClauses) > 0 {
			boolQuery["filter"] = filterClauses
		}
		query = map[string]interface{}{"bool": boolQuery}
	}

	body := map[string]interface{}{
		"query": query,
	}

	if sort := buildSort(q.Filters.AmountSort); sort != nil {
		body["sort"] = sort
	}

	return body
}

func appendTermsFilter(clauses []interface{}, field string, values []string) []interface{} {
	if len(values) == 0 {
		return clauses
	}
	return append(clauses, map[string]interface{}{
		"terms": map[string]interface{}{field: values},
	})
}

// buildSort returns an amount sort clause, or nil for relevance order.
// Documents whose amount failed to parse sort last either way.
func buildSort(amountSort *string) []interface{} {
	if amountSort == nil {
		return nil
	}
	order := strings.ToLower(strings.TrimSpace(*amountSort))
	if order != "asc" && order != "desc" {
		return nil
	}
	return []interface{}{
		map[string]interface{}{
			docFieldAmount: map[string]interface{}{
				"order":   order,
				"missing": "_last",
			},
		},
	}
}
