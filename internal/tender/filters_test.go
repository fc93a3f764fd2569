// internal/tender/filters_test.go
package tender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_EmptyStateSerializesToNulls(t *testing.T) {
	tests := []struct {
		name  string
		state FilterState
	}{
		{"fresh state", NewFilterState()},
		{"whitespace keyword", FilterState{Keywords: "   \t"}},
		{"empty slices instead of nil", FilterState{
			SubjectTypes:  []string{},
			PurchaseTypes: []string{},
			Methods:       []string{},
			Features:      []string{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildQuery(tt.state, 1, DefaultPageSize)

			assert.Nil(t, q.Query)
			assert.Nil(t, q.Filters.Category)
			assert.Nil(t, q.Filters.Method)
			assert.Nil(t, q.Filters.PurchaseType)
			assert.Nil(t, q.Filters.Features)
			assert.Nil(t, q.Filters.AmountSort)
			assert.Equal(t, 1, q.Page)
			assert.Equal(t, DefaultPageSize, q.PageSize)
		})
	}
}

func TestBuildQuery_Selections(t *testing.T) {
	state := NewFilterState()
	state.Keywords = "  дорога  "
	state.SelectSubjectType("Товар")
	state.SelectSubjectType("Работа")
	state.SelectSubjectType("Товар") // duplicate, ignored
	state.SelectMethod("Аукцион")
	state.AmountSort = SortDescending

	q := BuildQuery(state, 2, 15)

	require.NotNil(t, q.Query)
	assert.Equal(t, "дорога", *q.Query)
	assert.Equal(t, []string{"Товар", "Работа"}, q.Filters.Category)
	assert.Equal(t, []string{"Аукцион"}, q.Filters.Method)
	assert.Nil(t, q.Filters.PurchaseType)
	assert.Nil(t, q.Filters.Features)
	require.NotNil(t, q.Filters.AmountSort)
	assert.Equal(t, "desc", *q.Filters.AmountSort)
	assert.Equal(t, 2, q.Page)
}

func TestBuildQuery_InvalidSortSerializesToNull(t *testing.T) {
	state := NewFilterState()
	state.AmountSort = AmountSort("random")

	q := BuildQuery(state, 1, 15)
	assert.Nil(t, q.Filters.AmountSort)
}

func TestBuildQuery_PageBounds(t *testing.T) {
	q := BuildQuery(NewFilterState(), 0, 0)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestReset_IsIdempotentWithFreshState(t *testing.T) {
	state := NewFilterState()
	state.Keywords = "дорога"
	state.SelectSubjectType("Товар")
	state.SelectFeature("Без учета НДС")
	state.AmountSort = SortAscending

	state.Reset()

	assert.Equal(t, BuildQuery(NewFilterState(), 1, 15), BuildQuery(state, 1, 15))
}

func TestDeselect(t *testing.T) {
	state := NewFilterState()
	state.SelectMethod("Аукцион")
	state.SelectMethod("Тендер")
	state.DeselectMethod("Аукцион")

	q := BuildQuery(state, 1, 15)
	assert.Equal(t, []string{"Тендер"}, q.Filters.Method)

	// Removing the last option returns the set to "no constraint".
	state.DeselectMethod("Тендер")
	q = BuildQuery(state, 1, 15)
	assert.Nil(t, q.Filters.Method)

	// Deselecting something never selected is a no-op.
	state.DeselectMethod("Аукцион")
	assert.Nil(t, BuildQuery(state, 1, 15).Filters.Method)
}
