// Package service registers the "service" driver: runs a list of shell
// job strings against each host, pausing briefly between them. Grounded
// on the original ServiceTask, which ran a systemd-style action per job
// with a small randomized sleep standing in for the real remote call.
package service

import (
	"context"
	"math/rand"
	"os/exec"
	"time"

	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("service", New)
}

// Task is the service driver implementation.
type Task struct {
	inst *types.TaskInstance
	jobs []string
}

// New constructs a service Task from the task's config.jobs list.
func New(inst *types.TaskInstance) (driver.Task, error) {
	var jobs []string
	if raw, ok := inst.Definition.Config["jobs"].([]interface{}); ok {
		for _, j := range raw {
			if s, ok := j.(string); ok {
				jobs = append(jobs, s)
			}
		}
	}
	return &Task{inst: inst, jobs: jobs}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// Execute runs every configured job once per host, sleeping a short
// jittered interval between jobs to emulate remote service-manager
// round-trip latency.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	logger := log.WithTaskID(t.inst.ID)
	hosts := t.inst.Hosts
	if len(hosts) == 0 {
		hosts = []string{""}
	}

	results := make([]types.TaskResult, 0, len(hosts))
	for _, host := range hosts {
		for _, job := range t.jobs {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			default:
			}

			logger.Debug().Str("host", host).Str("job", job).Msg("running service job")
			cmd := exec.CommandContext(ctx, "sh", "-c", job)
			out, err := cmd.CombinedOutput()
			if err != nil {
				logger.Warn().Str("host", host).Str("job", job).Err(err).Str("output", string(out)).Msg("service job failed")
			}

			jitter := time.Duration(rand.Intn(200)) * time.Millisecond
			time.Sleep(jitter)
		}
		results = append(results, types.TaskResult{Status: true, Data: map[string]interface{}{}})
	}
	return results, nil
}
