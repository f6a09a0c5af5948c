// Package directord registers the "directord" driver: submits an
// orchestration of jobs against a set of target hosts to a remote
// directord-compatible API, then polls each resulting job id until it
// completes. Grounded on the original DirectordTask, whose orchestrate()
// returned a list of job ids and whose poll(job_id=id) returned
// (success bool, message string) per job — any false poll result raised
// ExecutionFailed.
package directord

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("directord", func(inst *types.TaskInstance) (driver.Task, error) {
		return New(inst, defaultClient)
	})
}

// Client is the directord wire boundary: orchestrate a batch of jobs
// against target hosts, then poll a single job id for completion. The
// default implementation talks to a directord API over HTTP; tests
// substitute an in-memory fake.
type Client interface {
	Orchestrate(ctx context.Context, jobs []string, targets []string) ([]string, error)
	Poll(ctx context.Context, jobID string) (bool, string, error)
}

var defaultClient Client = &HTTPClient{Endpoint: "http://localhost:9503"}

// Task is the directord driver implementation.
type Task struct {
	inst   *types.TaskInstance
	client Client
	jobs   []string
}

// New constructs a directord Task bound to the given client.
func New(inst *types.TaskInstance, client Client) (driver.Task, error) {
	var jobs []string
	if raw, ok := inst.Definition.Config["jobs"].([]interface{}); ok {
		for _, j := range raw {
			if s, ok := j.(string); ok {
				jobs = append(jobs, s)
			}
		}
	}
	return &Task{inst: inst, client: client, jobs: jobs}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// Execute orchestrates the task's jobs against its hosts and polls every
// resulting job id to completion, failing the whole task if any job
// reports failure.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	logger := log.WithTaskID(t.inst.ID)

	jobIDs, err := t.client.Orchestrate(ctx, t.jobs, t.inst.Hosts)
	if err != nil {
		return nil, &corerrors.UnavailableError{What: "directord orchestrate", Err: err}
	}

	results := make([]types.TaskResult, 0, len(jobIDs))
	var failures []string

	for _, jobID := range jobIDs {
		ok, msg, err := t.pollWithBackoff(ctx, jobID)
		if err != nil {
			return nil, &corerrors.UnavailableError{What: "directord poll", Err: err}
		}
		logger.Debug().Str("job_id", jobID).Bool("ok", ok).Str("message", msg).Msg("directord job polled")
		results = append(results, types.TaskResult{
			Status: ok,
			Data:   map[string]interface{}{"job_id": jobID, "message": msg},
		})
		if !ok {
			failures = append(failures, jobID)
		}
	}

	if len(failures) > 0 {
		return results, &corerrors.ExecutionFailedError{
			Task:   t.inst.Definition.Name,
			Reason: fmt.Sprintf("jobs failed: %v", failures),
		}
	}
	return results, nil
}

func (t *Task) pollWithBackoff(ctx context.Context, jobID string) (bool, string, error) {
	op := func() (pollResult, error) {
		ok, msg, err := t.client.Poll(ctx, jobID)
		if err != nil {
			return pollResult{}, err
		}
		return pollResult{ok: ok, msg: msg}, nil
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(10),
	)
	if err != nil {
		return false, "", err
	}
	return res.ok, res.msg, nil
}

type pollResult struct {
	ok  bool
	msg string
}
