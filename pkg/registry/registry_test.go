// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validRegistry = `{
	"version": "1.0.0",
	"lastUpdated": "2026-08-01",
	"activities": [
		{
			"id": "tender.search.query",
			"displayName": "Search Tenders",
			"taskType": "search-tenders",
			"implementationStatus": "implemented",
			"inputSchema": {
				"type": "object",
				"properties": {
					"query": {"type": "string"},
					"page": {"type": "integer", "minimum": 1}
				}
			},
			"errorCodes": ["INVALID_FILTER_FORMAT", "SEARCH_QUERY_FAILED"]
		},
		{
			"id": "risk.analysis.run",
			"displayName": "Analyze Tender",
			"taskType": "analyze-tender",
			"implementationStatus": "implemented"
		}
	]
}`

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, validRegistry))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	assert.Len(t, reg.Activities, 2)
	assert.Equal(t, []string{"search-tenders", "analyze-tender"}, reg.TaskTypes())
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry("/non/existent/registry.json")
	assert.Error(t, err)
}

func TestFindByTaskType(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, validRegistry))
	require.NoError(t, err)

	activity := reg.FindByTaskType("search-tenders")
	require.NotNil(t, activity)
	assert.Equal(t, "tender.search.query", activity.ID)

	assert.Nil(t, reg.FindByTaskType("unknown-task"))
}

func TestValidate(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, validRegistry))
	require.NoError(t, err)
	assert.NoError(t, reg.Validate())
}

func TestValidate_RejectsDuplicateTaskType(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "tender.search.query", TaskType: "search-tenders"},
		{ID: "tender.search.other", TaskType: "search-tenders"},
	}}
	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task type")
}

func TestValidate_RejectsBadNaming(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "SearchTenders", TaskType: "search-tenders"},
	}}
	assert.Error(t, reg.Validate())
}

func TestValidateInput(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, validRegistry))
	require.NoError(t, err)

	assert.NoError(t, reg.ValidateInput("search-tenders", map[string]interface{}{
		"query": "охрана",
		"page":  2,
	}))

	err = reg.ValidateInput("search-tenders", map[string]interface{}{
		"query": 42,
		"page":  0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search-tenders")
}

func TestValidateInput_NoSchemaPasses(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, validRegistry))
	require.NoError(t, err)

	// analyze-tender declares no input schema; unknown tasks validate too.
	assert.NoError(t, reg.ValidateInput("analyze-tender", map[string]interface{}{"x": 1}))
	assert.NoError(t, reg.ValidateInput("unknown-task", nil))
}
