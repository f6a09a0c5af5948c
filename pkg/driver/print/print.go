// Package print registers the "print" driver: a task whose only effect
// is to emit a configured message. Grounded on the original PrintTask,
// which took a "message" field and printed it; here the message is
// routed through the structured logger instead of stdout, matching how
// the rest of task-core reports progress.
package print

import (
	"context"

	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("print", New)
}

// Task is the print driver implementation.
type Task struct {
	inst    *types.TaskInstance
	message string
}

// New constructs a print Task from the task's config.message field.
func New(inst *types.TaskInstance) (driver.Task, error) {
	msg, _ := inst.Definition.Config["message"].(string)
	return &Task{inst: inst, message: msg}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// Execute logs the configured message once per host and always succeeds.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	logger := log.WithTaskID(t.inst.ID)
	hosts := t.inst.Hosts
	if len(hosts) == 0 {
		hosts = []string{""}
	}
	results := make([]types.TaskResult, 0, len(hosts))
	for _, host := range hosts {
		logger.Info().Str("host", host).Msg(t.message)
		results = append(results, types.TaskResult{Status: true, Data: map[string]interface{}{}})
	}
	return results, nil
}
