// internal/common/camunda/validation.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// InputValidator checks decoded job variables against the input schema
// registered for a task type.
type InputValidator interface {
	ValidateInput(taskType string, vars map[string]interface{}) error
}

// WithInputValidation wraps next so jobs whose variables violate the
// registered input schema fail immediately with zero retries instead of
// reaching the handler.
func WithInputValidation(validator InputValidator, taskType string, next HandlerFunc, logger *zap.Logger) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		if err := CheckJobInput(validator, taskType, job.Variables); err != nil {
			logger.Warn("job input rejected",
				zap.String("taskType", taskType),
				zap.Int64("jobKey", job.Key),
				zap.Error(err),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			_, failErr := client.NewFailJobCommand().
				JobKey(job.Key).
				Retries(0).
				ErrorMessage(err.Error()).
				Send(ctx)
			if failErr != nil {
				logger.Error("failed to fail job",
					zap.Int64("jobKey", job.Key),
					zap.Error(failErr),
				)
			}
			return
		}

		next(client, job)
	}
}

// CheckJobInput decodes the job's variable payload and runs it through
// the validator. Jobs with no variables pass; schema enforcement for
// required fields happens against the decoded object.
func CheckJobInput(validator InputValidator, taskType, variables string) error {
	if validator == nil {
		return nil
	}

	vars := map[string]interface{}{}
	if strings.TrimSpace(variables) != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return fmt.Errorf("parse job variables: %w", err)
		}
	}

	return validator.ValidateInput(taskType, vars)
}
