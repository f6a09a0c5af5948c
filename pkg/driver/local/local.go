// Package local registers the "local" driver: runs a shell command on the
// machine running task-core itself. Grounded on the original LocalTask,
// which wrapped subprocess.Popen(shell=True): quiet mode captures output
// via communicate(), verbose mode streams stdout line by line, and the
// command's exit code is checked against a configurable returncodes list
// (default [0]).
package local

import (
	"bufio"
	"context"
	"os/exec"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/types"
)

func init() {
	driver.Register("local", New)
}

// Task is the local driver implementation.
type Task struct {
	inst        *types.TaskInstance
	command     string
	quiet       bool
	returncodes map[int]struct{}
}

// New constructs a local Task from config.command, config.quiet
// (default false) and config.returncodes (default [0]).
func New(inst *types.TaskInstance) (driver.Task, error) {
	command, _ := inst.Definition.Config["command"].(string)
	quiet, _ := inst.Definition.Config["quiet"].(bool)

	codes := map[int]struct{}{0: {}}
	if raw, ok := inst.Definition.Config["returncodes"].([]interface{}); ok && len(raw) > 0 {
		codes = map[int]struct{}{}
		for _, v := range raw {
			switch n := v.(type) {
			case int:
				codes[n] = struct{}{}
			case float64:
				codes[int(n)] = struct{}{}
			}
		}
	}

	return &Task{inst: inst, command: command, quiet: quiet, returncodes: codes}, nil
}

func (t *Task) Name() string       { return t.inst.Definition.Name }
func (t *Task) Provides() []string { return t.inst.Definition.Provides }
func (t *Task) Requires() []string { return t.inst.Definition.Requires }
func (t *Task) TaskID() string     { return t.inst.ID }
func (t *Task) Hosts() []string    { return t.inst.Hosts }

// Execute runs the configured command once locally — "hosts" is ignored
// for this driver since the command runs on the task-core host itself,
// matching the Python original.
func (t *Task) Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error) {
	logger := log.WithTaskID(t.inst.ID)
	cmd := exec.CommandContext(ctx, "sh", "-c", t.command)

	var output string
	var exitCode int

	if t.quiet {
		out, err := cmd.CombinedOutput()
		output = string(out)
		exitCode = exitCodeOf(cmd, err)
	} else {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		cmd.Stderr = cmd.Stdout
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			logger.Info().Str("command", t.command).Msg(line)
			output += line + "\n"
		}
		waitErr := cmd.Wait()
		exitCode = exitCodeOf(cmd, waitErr)
	}

	if _, ok := t.returncodes[exitCode]; !ok {
		return []types.TaskResult{{Status: false, Data: map[string]interface{}{"returncode": exitCode, "output": output}}},
			&corerrors.ExecutionFailedError{Task: t.inst.Definition.Name, Reason: "unexpected return code"}
	}

	return []types.TaskResult{{Status: true, Data: map[string]interface{}{"returncode": exitCode, "output": output}}}, nil
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
