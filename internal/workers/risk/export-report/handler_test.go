// internal/workers/risk/export-report/handler_test.go
package exportreport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
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

type fakeExporter struct {
	lastOutcome *risk.AnalysisOutcome
	report      *risk.ExportedReport
	err         error
}

func (f *fakeExporter) Export(_ context.Context, _ models.RiskTenderPayload, outcome *risk.AnalysisOutcome) (*risk.ExportedReport, error) {
	f.lastOutcome = outcome
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func pdfReport() *risk.ExportedReport {
	return &risk.ExportedReport{
		FileName:    "tender_1_risk_report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.7"),
	}
}

// ==========================
// 1. Export
// ==========================

func TestExecute_ExportsReport(t *testing.T) {
	exporter := &fakeExporter{report: pdfReport()}
	handler := NewHandler(LoadConfig(), exporter, &fakeSES{}, &fakeSNS{}, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		TenderID:  "1",
		Analysis:  models.RiskAnalysis{OverallRiskLevel: "LOW"},
		PDFReport: "reports/1.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "tender_1_risk_report.pdf", output.FileName)
	assert.Equal(t, len("%PDF-1.7"), output.SizeBytes)
	assert.False(t, output.Notified)
	assert.Equal(t, "reports/1.pdf", exporter.lastOutcome.PDFReport)
}

func TestExecute_RequiresTenderID(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeExporter{report: pdfReport()}, &fakeSES{}, &fakeSNS{}, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestExecute_WrapsExporterFailure(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeExporter{err: errors.New("service down")}, &fakeSES{}, &fakeSNS{}, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{TenderID: "1"})
	assert.ErrorIs(t, err, ErrExportFailed)
}

// ==========================
// 2. Notifications
// ==========================

func TestExecute_SendsEmailWhenEnabled(t *testing.T) {
	config := LoadConfig()
	config.EmailEnabled = true
	config.FromEmail = "reports@bank.kz"

	sesClient := &fakeSES{}
	handler := NewHandler(config, &fakeExporter{report: pdfReport()}, sesClient, &fakeSNS{}, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		TenderID:    "1",
		TenderName:  "Ремонт",
		NotifyEmail: "manager@bank.kz",
	})
	require.NoError(t, err)

	assert.True(t, output.Notified)
	require.Len(t, sesClient.inputs, 1)
	assert.Equal(t, "reports@bank.kz", *sesClient.inputs[0].Source)
	assert.Equal(t, []string{"manager@bank.kz"}, sesClient.inputs[0].Destination.ToAddresses)
}

func TestExecute_SkipsEmailWithoutRecipient(t *testing.T) {
	config := LoadConfig()
	config.EmailEnabled = true

	sesClient := &fakeSES{}
	handler := NewHandler(config, &fakeExporter{report: pdfReport()}, sesClient, &fakeSNS{}, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{TenderID: "1"})
	require.NoError(t, err)

	assert.False(t, output.Notified)
	assert.Empty(t, sesClient.inputs)
}

func TestExecute_PublishesTopicEvent(t *testing.T) {
	config := LoadConfig()
	config.TopicEnabled = true
	config.TopicARN = "arn:aws:sns:eu-west-1:000000000000:reports"

	snsClient := &fakeSNS{}
	handler := NewHandler(config, &fakeExporter{report: pdfReport()}, &fakeSES{}, snsClient, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{TenderID: "1"})
	require.NoError(t, err)

	assert.True(t, output.Notified)
	require.Len(t, snsClient.inputs, 1)
	assert.Contains(t, *snsClient.inputs[0].Message, "report_exported")
}

func TestExecute_EmailFailureIsRetryable(t *testing.T) {
	config := LoadConfig()
	config.EmailEnabled = true

	handler := NewHandler(config, &fakeExporter{report: pdfReport()}, &fakeSES{err: errors.New("throttled")}, &fakeSNS{}, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		TenderID:    "1",
		NotifyEmail: "manager@bank.kz",
	})
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}
