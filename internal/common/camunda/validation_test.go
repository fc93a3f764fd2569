// internal/common/camunda/validation_test.go
package camunda

import (
	"errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeValidator struct {
	err       error
	taskTypes []string
	vars      []map[string]interface{}
}

func (f *fakeValidator) ValidateInput(taskType string, vars map[string]interface{}) error {
	f.taskTypes = append(f.taskTypes, taskType)
	f.vars = append(f.vars, vars)
	return f.err
}

func TestCheckJobInput(t *testing.T) {
	t.Run("nil validator passes", func(t *testing.T) {
		assert.NoError(t, CheckJobInput(nil, "search-tenders", `{"query":"x"}`))
	})

	t.Run("variables reach the validator", func(t *testing.T) {
		v := &fakeValidator{}
		require.NoError(t, CheckJobInput(v, "search-tenders", `{"query":"мебель","page":2}`))
		require.Len(t, v.vars, 1)
		assert.Equal(t, []string{"search-tenders"}, v.taskTypes)
		assert.Equal(t, "мебель", v.vars[0]["query"])
	})

	t.Run("empty payload validates an empty object", func(t *testing.T) {
		v := &fakeValidator{}
		require.NoError(t, CheckJobInput(v, "refresh-tenders", "   "))
		require.Len(t, v.vars, 1)
		assert.Empty(t, v.vars[0])
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		v := &fakeValidator{}
		err := CheckJobInput(v, "search-tenders", `{"query":`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse job variables")
		assert.Empty(t, v.vars)
	})

	t.Run("validator rejection is returned", func(t *testing.T) {
		v := &fakeValidator{err: errors.New("input for search-tenders rejected")}
		err := CheckJobInput(v, "search-tenders", `{"page":0}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")
	})
}

func TestWithInputValidation_ValidJobReachesHandler(t *testing.T) {
	called := 0
	next := func(client worker.JobClient, job entities.Job) {
		called++
	}

	v := &fakeValidator{}
	wrapped := WithInputValidation(v, "analyze-tender", next, zap.NewNop())

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       42,
		Variables: `{"tenderId":"123"}`,
	}}
	wrapped(nil, job)

	assert.Equal(t, 1, called)
	assert.Equal(t, []string{"analyze-tender"}, v.taskTypes)
}
