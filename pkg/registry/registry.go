// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z-]+\.[a-z-]+$`)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Validate checks registry consistency: unique IDs and task types,
// naming convention, and that every declared input/output schema is
// itself a loadable JSON Schema.
func (r *ActivityRegistry) Validate() error {
	seenIDs := map[string]bool{}
	seenTasks := map[string]bool{}

	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.ID)
		}
		if !activityIDPattern.MatchString(a.ID) {
			return fmt.Errorf("activity %q: id must follow domain.subdomain.action", a.ID)
		}
		if seenIDs[a.ID] {
			return fmt.Errorf("duplicate activity id %q", a.ID)
		}
		if seenTasks[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		seenIDs[a.ID] = true
		seenTasks[a.TaskType] = true

		if a.InputSchema != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
				return fmt.Errorf("activity %q: invalid input schema: %w", a.ID, err)
			}
		}
		if a.OutputSchema != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.OutputSchema)); err != nil {
				return fmt.Errorf("activity %q: invalid output schema: %w", a.ID, err)
			}
		}
	}
	return nil
}

// ValidateInput validates job variables against the input schema of
// the activity registered for taskType. A missing activity or a
// missing schema validates trivially so workers stay usable while the
// registry lags behind the code.
func (r *ActivityRegistry) ValidateInput(taskType string, vars map[string]interface{}) error {
	activity := r.FindByTaskType(taskType)
	if activity == nil || activity.InputSchema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(activity.InputSchema),
		gojsonschema.NewGoLoader(vars),
	)
	if err != nil {
		return fmt.Errorf("schema validation for %s: %w", taskType, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("input for %s rejected: %v", taskType, errs)
	}
	return nil
}
