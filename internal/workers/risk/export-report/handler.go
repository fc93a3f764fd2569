// internal/workers/risk/export-report/handler.go
package exportreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tender-workers/internal/common/logger"
	"tender-workers/internal/models"
	"tender-workers/internal/risk"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "export-report"

var (
	ErrExportFailed           = errors.New("REPORT_EXPORT_FAILED")
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	exporter  risk.PDFExporter
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewHandler(config *Config, exporter risk.PDFExporter, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		exporter:  exporter,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "REPORT_EXPORT_FAILED"
		retries := int32(0)
		if errors.Is(err, ErrNotificationSendFailed) {
			errorCode = "NOTIFICATION_SEND_FAILED"
			retries = 2
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TenderID == "" {
		return nil, fmt.Errorf("%w: tenderId is required", ErrExportFailed)
	}

	payload := models.RiskTenderPayload{
		ID:   input.TenderID,
		Name: input.TenderName,
	}
	outcome := &risk.AnalysisOutcome{
		TenderID:   input.TenderID,
		TenderName: input.TenderName,
		Analysis:   input.Analysis,
		PDFReport:  input.PDFReport,
	}

	report, err := h.exporter.Export(ctx, payload, outcome)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	notified, err := h.notify(ctx, input, report)
	if err != nil {
		return nil, err
	}

	h.logger.Info("report exported", map[string]interface{}{
		"tenderId": input.TenderID,
		"fileName": report.FileName,
		"bytes":    len(report.Content),
	})

	return &Output{
		FileName:   report.FileName,
		SizeBytes:  len(report.Content),
		Notified:   notified,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) notify(ctx context.Context, input *Input, report *risk.ExportedReport) (bool, error) {
	notified := false

	if h.config.EmailEnabled && input.NotifyEmail != "" && h.sesClient != nil {
		subject := fmt.Sprintf("Отчёт о рисках по тендеру %s готов", input.TenderID)
		body := fmt.Sprintf("Сформирован отчёт %s по тендеру «%s».", report.FileName, input.TenderName)

		_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(h.config.FromEmail),
			Destination: &types.Destination{
				ToAddresses: []string{input.NotifyEmail},
			},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		})
		if err != nil {
			return false, fmt.Errorf("%w: email: %v", ErrNotificationSendFailed, err)
		}
		notified = true
	}

	if h.config.TopicEnabled && h.config.TopicARN != "" && h.snsClient != nil {
		message, _ := json.Marshal(map[string]string{
			"event":    "report_exported",
			"tenderId": input.TenderID,
			"fileName": report.FileName,
		})
		_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(h.config.TopicARN),
			Message:  aws.String(string(message)),
		})
		if err != nil {
			return notified, fmt.Errorf("%w: topic: %v", ErrNotificationSendFailed, err)
		}
		notified = true
	}

	return notified, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
