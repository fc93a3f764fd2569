// internal/workers/tender/refresh-tenders/models.go
package refreshtenders

type Input struct {
	// Source restricts the refresh to one ingestion source; empty
	// means all rows.
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type Output struct {
	Indexed     int    `json:"indexed"`
	Skipped     int    `json:"skipped"`
	Invalidated bool   `json:"cacheInvalidated"`
	RefreshedAt string `json:"refreshedAt"` // ISO 8601
}
