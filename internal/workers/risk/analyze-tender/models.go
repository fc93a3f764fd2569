// internal/workers/risk/analyze-tender/models.go
package analyzetender

import "tender-workers/internal/models"

type Input struct {
	// Tender is the raw record as it came out of search; the handler
	// normalizes it into the analysis payload.
	Tender models.TenderRecord `json:"tender"`
}

type Output struct {
	TenderID   string              `json:"tenderId"`
	TenderName string              `json:"tenderName"`
	Analysis   models.RiskAnalysis `json:"analysis"`
	PDFReport  string              `json:"pdfReport,omitempty"`
	AnalyzedAt string              `json:"analyzedAt"` // ISO 8601
}
