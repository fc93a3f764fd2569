// internal/search/queries_test.go
package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-workers/internal/models"
)

func strPtr(s string) *string { return &s }

// ==========================
// 1. Query Body Construction
// ==========================

func TestBuildSearchBody_EmptyQueryMatchesAll(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{})

	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, query, "match_all")
	assert.NotContains(t, body, "sort")
}

func TestBuildSearchBody_BlankTextAddsNoClause(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{Query: strPtr("   ")})

	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "match_all")
}

func TestBuildSearchBody_TextQuery(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{Query: strPtr("строительство")})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)

	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "строительство", multiMatch["query"])
	assert.Contains(t, multiMatch["fields"], "title^3")
}

func TestBuildSearchBody_NilFiltersAddNoClauses(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{
		Filters: models.SearchFilters{
			Category: nil,
			Method:   nil,
			Features: nil,
		},
	})

	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "match_all")
}

func TestBuildSearchBody_TermsFilters(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{
		Filters: models.SearchFilters{
			Method:   []string{"Тендер"},
			Features: []string{"Без учета НДС", "СМР"},
		},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 2)

	methodTerms := filters[0].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []string{"Тендер"}, methodTerms["method"])

	featureTerms := filters[1].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []string{"Без учета НДС", "СМР"}, featureTerms["features"])
}

func TestBuildSearchBody_TextAndFiltersCombined(t *testing.T) {
	body := BuildSearchBody(models.SearchQuery{
		Query: strPtr("ремонт"),
		Filters: models.SearchFilters{
			PurchaseType: []string{"Работа"},
		},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["must"], 1)
	assert.Len(t, boolQuery["filter"], 1)
}

// ==========================
// 2. Amount Sorting
// ==========================

func TestBuildSearchBody_AmountSort(t *testing.T) {
	tests := []struct {
		name      string
		sort      *string
		wantOrder string
	}{
		{"ascending", strPtr("asc"), "asc"},
		{"descending", strPtr("desc"), "desc"},
		{"mixed case", strPtr("DESC"), "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := BuildSearchBody(models.SearchQuery{
				Filters: models.SearchFilters{AmountSort: tt.sort},
			})

			sort, ok := body["sort"].([]interface{})
			require.True(t, ok)
			require.Len(t, sort, 1)

			clause := sort[0].(map[string]interface{})["amount"].(map[string]interface{})
			assert.Equal(t, tt.wantOrder, clause["order"])
			assert.Equal(t, "_last", clause["missing"])
		})
	}
}

func TestBuildSearchBody_NoSortForNilOrInvalid(t *testing.T) {
	assert.NotContains(t, BuildSearchBody(models.SearchQuery{}), "sort")

	body := BuildSearchBody(models.SearchQuery{
		Filters: models.SearchFilters{AmountSort: strPtr("sideways")},
	})
	assert.NotContains(t, body, "sort")
}
