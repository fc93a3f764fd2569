// internal/workers/risk/export-report/models.go
package exportreport

import "tender-workers/internal/models"

type Input struct {
	TenderID   string              `json:"tenderId"`
	TenderName string              `json:"tenderName,omitempty"`
	Analysis   models.RiskAnalysis `json:"analysis"`
	PDFReport  string              `json:"pdfReport,omitempty"`
	// NotifyEmail, when set, receives a completion email with the
	// report name attached as a reference.
	NotifyEmail string `json:"notifyEmail,omitempty"`
}

type Output struct {
	FileName   string `json:"fileName"`
	SizeBytes  int    `json:"sizeBytes"`
	Notified   bool   `json:"notified"`
	ExportedAt string `json:"exportedAt"` // ISO 8601
}
