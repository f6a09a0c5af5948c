package local

import (
	"context"
	"testing"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsReturncodesToZero(t *testing.T) {
	inst := &types.TaskInstance{Definition: types.TaskDefinition{
		Config: map[string]interface{}{"command": "true"},
	}}

	taskIface, err := New(inst)
	require.NoError(t, err)
	task := taskIface.(*Task)
	_, ok := task.returncodes[0]
	assert.True(t, ok)
}

func TestNewHonorsConfiguredReturncodes(t *testing.T) {
	inst := &types.TaskInstance{Definition: types.TaskDefinition{
		Config: map[string]interface{}{
			"command":     "exit 3",
			"returncodes": []interface{}{float64(0), float64(3)},
		},
	}}

	taskIface, err := New(inst)
	require.NoError(t, err)
	task := taskIface.(*Task)
	_, zeroOK := task.returncodes[0]
	_, threeOK := task.returncodes[3]
	assert.True(t, zeroOK)
	assert.True(t, threeOK)
}

func TestExecuteSucceedsOnExpectedReturnCode(t *testing.T) {
	inst := &types.TaskInstance{
		ID:         "task-1",
		Definition: types.TaskDefinition{Name: "shell", Config: map[string]interface{}{"command": "exit 0", "quiet": true}},
	}
	task, err := New(inst)
	require.NoError(t, err)

	results, err := task.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Status)
}

func TestExecuteFailsOnUnexpectedReturnCode(t *testing.T) {
	inst := &types.TaskInstance{
		ID:         "task-1",
		Definition: types.TaskDefinition{Name: "shell", Config: map[string]interface{}{"command": "exit 7", "quiet": true}},
	}
	task, err := New(inst)
	require.NoError(t, err)

	results, err := task.Execute(context.Background(), nil)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Status)
	assert.Equal(t, 7, results[0].Data["returncode"])

	var execErr *corerrors.ExecutionFailedError
	assert.ErrorAs(t, err, &execErr)
}
