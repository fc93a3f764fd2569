// internal/models/risk.go
package models

// RiskTenderPayload is the single-tender item sent to the external
// risk-analysis service. Dates are YYYY-MM-DD or empty.
type RiskTenderPayload struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Organizer       string  `json:"organizer"`
	InvitedSupplier string  `json:"invited_supplier"`
	Method          string  `json:"method"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
}

// RiskAnalysisRequest wraps the outbound payload. The service accepts a
// batch but this system always sends exactly one tender per request.
type RiskAnalysisRequest struct {
	Tenders []RiskTenderPayload `json:"tenders"`
}

// KeyRisk is one entry of the key-risks section.
type KeyRisk struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// BankingProduct is an optional banking-product suggestion.
type BankingProduct struct {
	Product       string `json:"product"`
	Justification string `json:"justification,omitempty"`
	Conditions    string `json:"conditions,omitempty"`
}

// RiskAnalysis is the structured result for one tender. Every field is
// optional: a missing field means "omit that section", not an error.
type RiskAnalysis struct {
	OverallRiskLevel           string           `json:"overall_risk_level,omitempty"`
	RiskScoreEstimate          *float64         `json:"risk_score_estimate,omitempty"`
	InvestmentOpportunityScore *float64         `json:"investment_opportunity_score,omitempty"`
	BankingProducts            []BankingProduct `json:"banking_products,omitempty"`
	KeyRisks                   []KeyRisk        `json:"key_risks,omitempty"`
	InvestmentRisks            []string         `json:"investment_risks,omitempty"`
	RedFlags                   []string         `json:"red_flags,omitempty"`
	PositiveFactors            []string         `json:"positive_factors,omitempty"`
	ManagerChecklist           []string         `json:"manager_checklist,omitempty"`
	Recommendations            []string         `json:"recommendations,omitempty"`
	ExecutiveSummary           string           `json:"executive_summary,omitempty"`
	DetailedAnalysis           string           `json:"detailed_analysis,omitempty"`
	ModelUsed                  string           `json:"model_used,omitempty"`
}

// RiskAnalysisResult pairs one tender with its analysis.
type RiskAnalysisResult struct {
	TenderID   string       `json:"tender_id"`
	TenderName string       `json:"tender_name"`
	Analysis   RiskAnalysis `json:"analysis"`
}

// RiskAnalysisResponse is the envelope returned by the risk service.
// Only results[0].analysis is consumed here; the report references are
// forwarded to the export path untouched.
type RiskAnalysisResponse struct {
	Status       string               `json:"status"`
	Timestamp    string               `json:"timestamp"`
	TotalTenders int                  `json:"total_tenders"`
	Results      []RiskAnalysisResult `json:"results"`
	PDFReport    string               `json:"pdf_report,omitempty"`
	TXTReport    string               `json:"txt_report,omitempty"`
	JSONReport   string               `json:"json_report,omitempty"`
}
