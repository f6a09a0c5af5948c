// Package ansiblerunner registers the "ansible_runner" driver: invokes
// the ansible-runner CLI against a generated working directory, the way
// the original AnsibleRunnerTask drove Python's ansible_runner.interface
// (itself a subprocess wrapper). Because no Go SDK for ansible-runner
// exists in the example corpus, this shells out directly — the same
// boundary the Python class crossed.
package ansiblerunner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("ansible_runner", New)
}

// Task is the ansible_runner driver implementation.
type Task struct {
	inst       *types.TaskInstance
	playbook   string
	workingDir string
	inventory  string
}

// New constructs an ansible_runner Task from config.playbook,
// config.working_dir and optional config.inventory.
func New(inst *types.TaskInstance) (driver.Task, error) {
	playbook, _ := inst.Definition.Config["playbook"].(string)
	workingDir, _ := inst.Definition.Config["working_dir"].(string)
	if workingDir == "" {
		workingDir = filepath.Join(os.TempDir(), "task-core", inst.ID)
	}
	invFile, _ := inst.Definition.Config["inventory"].(string)
	return &Task{inst: inst, playbook: playbook, workingDir: workingDir, inventory: invFile}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// ansibleEnv builds the ANSIBLE_* environment variables ansible-runner
// expects, each rooted under the task's working directory the way the
// original AnsibleRunnerTask constructed `{working_dir}/{subdir}` paths.
func (t *Task) ansibleEnv() []string {
	env := os.Environ()
	dirs := map[string]string{
		"ANSIBLE_LOCAL_TEMP":   "local_tmp",
		"ANSIBLE_REMOTE_TEMP":  "remote_tmp",
		"ANSIBLE_LOG_PATH":     "artifacts/ansible.log",
		"ANSIBLE_RETRY_FILES_SAVE_PATH": "retries",
	}
	for k, sub := range dirs {
		env = append(env, fmt.Sprintf("%s=%s", k, filepath.Join(t.workingDir, sub)))
	}
	return env
}

// Execute shells out to ansible-runner and reports success only when its
// process exit code is 0. The reported status is derived from that exit
// code ("successful" for 0, "failed" otherwise); no status file written by
// ansible-runner is read.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	logger := log.WithTaskID(t.inst.ID)
	if err := os.MkdirAll(t.workingDir, 0o755); err != nil {
		return nil, &corerrors.UnavailableError{What: "ansible-runner working_dir", Err: err}
	}

	args := []string{"run", t.workingDir, "-p", t.playbook}
	if t.inventory != "" {
		args = append(args, "-i", t.inventory)
	}

	cmd := exec.CommandContext(ctx, "ansible-runner", args...)
	cmd.Env = t.ansibleEnv()
	out, err := cmd.CombinedOutput()
	rc := exitCode(cmd, err)

	status := "successful"
	if rc != 0 {
		status = "failed"
	}

	logger.Info().Str("playbook", t.playbook).Int("rc", rc).Str("status", status).Msg("ansible-runner finished")

	result := types.TaskResult{
		Status: status == "successful" && rc == 0,
		Data: map[string]interface{}{
			"status": status,
			"rc":     rc,
			"output": string(out),
		},
	}

	if !result.Status {
		return []types.TaskResult{result}, &corerrors.ExecutionFailedError{
			Task:   t.inst.Definition.Name,
			Reason: fmt.Sprintf("ansible-runner status=%s rc=%d", status, rc),
		}
	}
	return []types.TaskResult{result}, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
