// internal/workers/risk/analyze-tender/handler_test.go
package analyzetender

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/risk"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type fakeAnalyzer struct {
	lastPayload models.RiskTenderPayload
	outcome     *risk.AnalysisOutcome
	err         error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, payload models.RiskTenderPayload) (*risk.AnalysisOutcome, error) {
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func createTestHandler(t *testing.T, analyzer *fakeAnalyzer) *Handler {
	return NewHandler(LoadConfig(), analyzer, newTestLogger(t))
}

// ==========================
// 1. Payload Normalization
// ==========================

func TestExecute_BuildsPayloadFromRawRecord(t *testing.T) {
	analyzer := &fakeAnalyzer{outcome: &risk.AnalysisOutcome{
		TenderID: "4185063",
		Analysis: models.RiskAnalysis{OverallRiskLevel: "MEDIUM"},
	}}
	handler := createTestHandler(t, analyzer)

	output, err := handler.Execute(context.Background(), &Input{
		Tender: models.TenderRecord{
			"ID":                           "4185063",
			"Наименование объявления":      "Капитальный ремонт",
			"Организатор":                  "ТОО Заказчик",
			"Сумма, тг.":                   "1 500 000,50",
			"Детали_Срок окончания приема": "2026-10-01 10:00:00",
		},
	})
	require.NoError(t, err)

	p := analyzer.lastPayload
	assert.Equal(t, "4185063", p.ID)
	assert.Equal(t, "Капитальный ремонт", p.Name)
	assert.Equal(t, 1500000.50, p.Price)
	assert.Equal(t, "ТОО Заказчик", p.Organizer)
	assert.Equal(t, "2026-10-01", p.EndDate)

	assert.Equal(t, "4185063", output.TenderID)
	assert.Equal(t, "MEDIUM", output.Analysis.OverallRiskLevel)
	assert.NotEmpty(t, output.AnalyzedAt)
}

func TestExecute_FallsBackToPayloadName(t *testing.T) {
	analyzer := &fakeAnalyzer{outcome: &risk.AnalysisOutcome{
		Analysis: models.RiskAnalysis{},
	}}
	handler := createTestHandler(t, analyzer)

	output, err := handler.Execute(context.Background(), &Input{
		Tender: models.TenderRecord{
			"ID":                      "7",
			"Наименование объявления": "Поставка техники",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Поставка техники", output.TenderName)
}

// ==========================
// 2. Validation and Errors
// ==========================

func TestExecute_RejectsEmptyRecord(t *testing.T) {
	handler := createTestHandler(t, &fakeAnalyzer{})

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingTender)
}

func TestExecute_RejectsRecordWithoutID(t *testing.T) {
	handler := createTestHandler(t, &fakeAnalyzer{})

	_, err := handler.Execute(context.Background(), &Input{
		Tender: models.TenderRecord{"Организатор": "АО Тест"},
	})
	assert.ErrorIs(t, err, ErrMissingTender)
}

func TestExecute_PropagatesAnalyzerErrors(t *testing.T) {
	handler := createTestHandler(t, &fakeAnalyzer{err: risk.ErrAnalysisTimeout})

	_, err := handler.Execute(context.Background(), &Input{
		Tender: models.TenderRecord{"ID": "1"},
	})
	assert.ErrorIs(t, err, risk.ErrAnalysisTimeout)
}
