// Package driver defines the Task contract every executable task must
// satisfy and a name -> constructor registry that pluggable driver
// packages register themselves into at init time, mirroring the fixed
// DRIVERS dict of the original Python task manager.
package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/oshied/task-core/pkg/types"
)

// Task is the contract every driver-backed task instance implements.
// Execute receives inputs: the resolved value bound to each symbol this
// task requires, keyed by symbol name, so that upstream task results
// reach downstream tasks as keyword-argument-like bindings rather than
// being re-read from a side channel.
type Task interface {
	Name() string
	Provides() []string
	Requires() []string
	TaskID() string
	Hosts() []string
	Execute(ctx context.Context, inputs map[string]interface{}) ([]types.TaskResult, error)
}

// Constructor builds a Task from a bound TaskInstance.
type Constructor func(inst *types.TaskInstance) (Task, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a named driver constructor to the registry. Called from
// each driver sub-package's init().
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Build looks up inst.Definition.Driver in the registry and constructs a
// Task from it.
func Build(inst *types.TaskInstance) (Task, error) {
	mu.RLock()
	ctor, ok := registry[inst.Definition.Driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown driver %q for task %q", inst.Definition.Driver, inst.Definition.Name)
	}
	return ctor(inst)
}

// Names returns the currently registered driver names, for diagnostics
// and tests.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
