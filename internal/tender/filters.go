// internal/tender/filters.go
package tender

import (
	"strings"

	"tender-workers/internal/models"
)

// AmountSort is the optional price ordering of a search.
type AmountSort string

const (
	SortNone       AmountSort = ""
	SortAscending  AmountSort = "asc"
	SortDescending AmountSort = "desc"
)

// DefaultPageSize matches the result-list page length of the UI.
const DefaultPageSize = 15

// FilterState is the mutable filter selection driving a search. Each
// multi-select behaves as a set: selection order is kept but duplicates
// and blank entries are dropped. "All options selected" and "nothing
// selected" are distinct, legal states.
type FilterState struct {
	Keywords      string
	SubjectTypes  []string
	PurchaseTypes []string
	Methods       []string
	Features      []string
	AmountSort    AmountSort
}

// NewFilterState returns the initial, unconstrained state.
func NewFilterState() FilterState {
	return FilterState{}
}

// Reset clears every selection. BuildQuery on a reset state equals
// BuildQuery on a fresh one.
func (f *FilterState) Reset() {
	*f = NewFilterState()
}

// Select adds an option to one of the multi-select sets, ignoring
// duplicates and blank values.
func selectOption(set []string, option string) []string {
	option = strings.TrimSpace(option)
	if option == "" {
		return set
	}
	for _, existing := range set {
		if existing == option {
			return set
		}
	}
	return append(set, option)
}

// Deselect removes an option from a set; absent options are a no-op.
func deselectOption(set []string, option string) []string {
	out := set[:0]
	for _, existing := range set {
		if existing != option {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f *FilterState) SelectSubjectType(v string)    { f.SubjectTypes = selectOption(f.SubjectTypes, v) }
func (f *FilterState) DeselectSubjectType(v string)  { f.SubjectTypes = deselectOption(f.SubjectTypes, v) }
func (f *FilterState) SelectPurchaseType(v string)   { f.PurchaseTypes = selectOption(f.PurchaseTypes, v) }
func (f *FilterState) DeselectPurchaseType(v string) { f.PurchaseTypes = deselectOption(f.PurchaseTypes, v) }
func (f *FilterState) SelectMethod(v string)         { f.Methods = selectOption(f.Methods, v) }
func (f *FilterState) DeselectMethod(v string)       { f.Methods = deselectOption(f.Methods, v) }
func (f *FilterState) SelectFeature(v string)        { f.Features = selectOption(f.Features, v) }
func (f *FilterState) DeselectFeature(v string)      { f.Features = deselectOption(f.Features, v) }

// BuildQuery converts the current selection into the normalized outbound
// request. Empty selections and a blank keyword serialize to null, never
// to [] or "": the search backend reads [] as "match none" and null as
// "match any".
func BuildQuery(f FilterState, page, pageSize int) models.SearchQuery {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return models.SearchQuery{
		Query: nilIfBlank(f.Keywords),
		Filters: models.SearchFilters{
			Category:     nilIfEmpty(f.SubjectTypes),
			Method:       nilIfEmpty(f.Methods),
			PurchaseType: nilIfEmpty(f.PurchaseTypes),
			Features:     nilIfEmpty(f.Features),
			AmountSort:   sortValue(f.AmountSort),
		},
		Page:     page,
		PageSize: pageSize,
	}
}

func nilIfBlank(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nilIfEmpty(set []string) []string {
	cleaned := make([]string, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, v := range set {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		cleaned = append(cleaned, v)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func sortValue(s AmountSort) *string {
	switch s {
	case SortAscending, SortDescending:
		v := string(s)
		return &v
	default:
		return nil
	}
}
