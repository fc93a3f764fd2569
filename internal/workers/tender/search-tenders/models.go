// internal/workers/tender/search-tenders/models.go
package searchtenders

import (
	"tender-workers/internal/models"
	"tender-workers/internal/tender"
)

type Input struct {
	Query    string                 `json:"query,omitempty"`
	Filters  map[string]interface{} `json:"filters,omitempty"`
	Page     int                    `json:"page,omitempty"`
	PageSize int                    `json:"pageSize,omitempty"`
}

type Output struct {
	Results models.SearchResponse `json:"searchResults"`
	Window  []tender.PageItem     `json:"paginationWindow"`
}
