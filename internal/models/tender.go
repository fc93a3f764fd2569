// internal/models/tender.go
package models

// TenderRecord is a raw tender row as returned by the search backend.
// The dataset went through several parser revisions, so field names are
// not stable ("Организатор" vs "Общие_Организатор" etc). Records are
// read-only; a new search replaces them wholesale.
type TenderRecord map[string]interface{}

// CanonicalTenderView is the display-safe projection of a TenderRecord.
// Every field resolves to a value even for malformed input.
type CanonicalTenderView struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Organizer             string `json:"organizer"`
	OrganizerEmail        string `json:"organizerEmail"`
	AmountDisplay         string `json:"amountDisplay"`
	DeadlineDisplay       string `json:"deadlineDisplay"`
	RelativeDeadlineLabel string `json:"relativeDeadlineLabel"`
	Method                string `json:"method"`
	PurchaseType          string `json:"purchaseType"`
	Status                string `json:"status"`
	Features              string `json:"features"`
	ExternalLink          string `json:"externalLink"`
}

// SearchFilters is the normalized multi-select filter block of a
// SearchQuery. A nil slice means "no constraint"; the backend treats an
// empty array as "match none", so empty selections must never be
// serialized as [].
type SearchFilters struct {
	Category     []string `json:"category"`
	Method       []string `json:"method"`
	PurchaseType []string `json:"purchaseType"`
	Features     []string `json:"features"`
	AmountSort   *string  `json:"amountSort"`
}

// SearchQuery is the normalized outbound search request.
type SearchQuery struct {
	Query    *string       `json:"query"`
	Filters  SearchFilters `json:"filters"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// SearchResponse mirrors the search backend's reply. Page and Pages
// from the response, not the request, are authoritative for window
// computation.
type SearchResponse struct {
	Items    []TenderRecord `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Pages    int            `json:"pages"`
}
