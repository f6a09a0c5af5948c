// Package noop registers the "noop" driver: a task that does nothing and
// always succeeds, used for dry runs and graph-shape tests. Grounded on
// the original NoopTask, which returns {"hosts": ..., "id": ...}.
package noop

import (
	"context"

	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("noop", New)
}

// Task is the noop driver implementation.
type Task struct {
	inst *types.TaskInstance
}

// New constructs a noop Task.
func New(inst *types.TaskInstance) (driver.Task, error) {
	return &Task{inst: inst}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// Execute returns one successful result per provided symbol (or a single
// result if the task provides nothing), each carrying the task's id and
// projected hosts in Data, matching the original NoopTask's
// {"hosts": ..., "id": ...} payload.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	n := len(t.inst.Definition.Provides)
	if n == 0 {
		n = 1
	}
	results := make([]types.TaskResult, n)
	for i := range results {
		results[i] = types.TaskResult{
			Status: true,
			Data: map[string]interface{}{
				"hosts": t.inst.Hosts,
				"id":    t.inst.ID,
			},
		}
	}
	return results, nil
}
