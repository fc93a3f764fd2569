// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeRefreshFailed            ErrorCode = "TENDER_REFRESH_FAILED"

	ErrCodeRiskAnalysisFailed ErrorCode = "RISK_ANALYSIS_FAILED"
	ErrCodeRiskAPITimeout     ErrorCode = "RISK_API_TIMEOUT"
	ErrCodeEmptyRiskResult    ErrorCode = "EMPTY_RISK_RESULT"

	ErrCodeReportExportFailed     ErrorCode = "REPORT_EXPORT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ConvertToBPMNError maps a StandardError to its workflow-engine form.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidFilterError creates a non-retryable filter validation error.
func NewInvalidFilterError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterFormat,
		Message:   "Invalid search filter format",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search backend error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Tender search query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Tender search timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable missing-index error.
func NewIndexNotFoundError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Search index not found",
		Details:   index,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionError creates a retryable database error.
func NewDatabaseConnectionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionError creates a retryable query error.
func NewQueryExecutionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRefreshFailedError creates a retryable index-refresh error.
func NewRefreshFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRefreshFailed,
		Message:   "Tender index refresh failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRiskAnalysisFailedError creates a retryable risk-service error.
func NewRiskAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRiskAnalysisFailed,
		Message:   "Risk analysis request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRiskAPITimeoutError creates a retryable risk-service timeout error.
func NewRiskAPITimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRiskAPITimeout,
		Message:   "Risk analysis service timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyRiskResultError creates a non-retryable empty-response error.
func NewEmptyRiskResultError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyRiskResult,
		Message:   "Risk analysis returned no results",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportExportFailedError creates a non-retryable export error:
// export failures surface to the user, who re-triggers manually.
func NewReportExportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportExportFailed,
		Message:   "Report export failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Completion notification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable external-service error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service %s failed", service),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation against %s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry / Category Policy
// ==========================

// retryCounts maps error codes to the number of workflow-level retries.
var retryCounts = map[ErrorCode]int{
	ErrCodeSearchQueryFailed:        2,
	ErrCodeSearchTimeout:            2,
	ErrCodeDatabaseConnectionFailed: 3,
	ErrCodeQueryExecutionFailed:     2,
	ErrCodeRefreshFailed:            2,
	ErrCodeRiskAnalysisFailed:       1,
	ErrCodeRiskAPITimeout:           1,
	ErrCodeNotificationSendFailed:   2,
	ErrCodeExternalService:          2,
	ErrCodeTimeout:                  2,
}

// GetRetryCount returns how many times a failed job with this code
// should be retried by the workflow engine. Zero means throw a BPMN
// error immediately.
func GetRetryCount(code ErrorCode) int {
	return retryCounts[code]
}

var categories = map[ErrorCode]string{
	ErrCodeInvalidFilterFormat:      "validation",
	ErrCodeSearchQueryFailed:        "search",
	ErrCodeSearchTimeout:            "search",
	ErrCodeIndexNotFound:            "search",
	ErrCodeDatabaseConnectionFailed: "database",
	ErrCodeQueryExecutionFailed:     "database",
	ErrCodeRefreshFailed:            "database",
	ErrCodeRiskAnalysisFailed:       "risk",
	ErrCodeRiskAPITimeout:           "risk",
	ErrCodeEmptyRiskResult:          "risk",
	ErrCodeReportExportFailed:       "report",
	ErrCodeNotificationSendFailed:   "notification",
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	if cat, ok := categories[code]; ok {
		return cat
	}
	return "internal"
}
