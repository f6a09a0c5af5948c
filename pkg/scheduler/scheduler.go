// Package scheduler walks a built task graph and dispatches each ready
// task to its driver, either one at a time (Serial) or across a bounded
// worker pool (Parallel). Both schedulers respect the graph's dependency
// order: a task only becomes dispatchable once every task it requires has
// finished successfully.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/driver"
	"github.com/oshied/task-core/pkg/events"
	"github.com/oshied/task-core/pkg/graph"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/metrics"
	"github.com/oshied/task-core/pkg/types"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the parallel scheduler's worker pool size when the
// caller does not override it.
const DefaultWorkers = 5

// SymbolTable bridges a task's provided symbols to whatever downstream
// tasks that require them read back. Each symbol has exactly one writer:
// the task instance that declared it under "provides".
type SymbolTable struct {
	mu      sync.Mutex
	values  map[string]interface{}
	written map[string]string // symbol -> writer task id
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		values:  map[string]interface{}{},
		written: map[string]string{},
	}
}

// Set records val under symbol on behalf of taskID. Setting the same
// symbol from a second task id is a bug in the graph (providers are
// supposed to be unique) and returns an error rather than silently
// overwriting.
func (s *SymbolTable) Set(symbol, taskID string, val interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.written[symbol]; ok && owner != taskID {
		return &corerrors.ValidationError{Artifact: symbol, Reason: "symbol already written by " + owner}
	}
	s.values[symbol] = val
	s.written[symbol] = taskID
	return nil
}

// Get reads the current value of symbol, if any.
func (s *SymbolTable) Get(symbol string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[symbol]
	return v, ok
}

// Scheduler runs every task in a Graph to completion or first failure.
type Scheduler interface {
	Run(ctx context.Context, g *graph.Graph, symbols *SymbolTable) error
}

// execute builds and runs the driver task for inst, recording its result,
// publishing lifecycle events, and writing every provided symbol into
// symbols.
func execute(ctx context.Context, inst *types.TaskInstance, symbols *SymbolTable, bus *events.Broker) error {
	logger := log.WithTaskID(inst.ID)
	inst.Status = types.TaskRunning
	inst.StartedAt = time.Now()
	if bus != nil {
		bus.Publish(&events.Event{ID: inst.ID, Type: events.EventTaskStarted, Message: inst.Definition.Name})
	}

	timer := metrics.NewTimer()
	task, err := driver.Build(inst)
	if err != nil {
		inst.Status = types.TaskFailed
		inst.Err = err
		metrics.TasksTotal.WithLabelValues("failed", inst.Definition.Driver).Inc()
		return err
	}

	inputs := make(map[string]interface{}, len(inst.Definition.Requires))
	for _, req := range inst.Definition.Requires {
		if val, ok := symbols.Get(req); ok {
			inputs[req] = val
		}
	}

	results, err := task.Execute(ctx, inputs)
	inst.FinishedAt = time.Now()
	timer.ObserveDurationVec(metrics.TaskExecutionDuration, inst.Definition.Driver)

	ok := err == nil
	for _, r := range results {
		ok = ok && r.Status
	}
	if len(results) > 0 {
		inst.Result = &results[0]
	}

	if !ok {
		inst.Status = types.TaskFailed
		if err == nil {
			err = &corerrors.ExecutionFailedError{Task: inst.Definition.Name, Reason: "one or more hosts reported failure"}
		}
		inst.Err = err
		metrics.TasksTotal.WithLabelValues("failed", inst.Definition.Driver).Inc()
		if bus != nil {
			bus.Publish(&events.Event{ID: inst.ID, Type: events.EventTaskFailed, Message: err.Error()})
		}
		logger.Error().Err(err).Str("task", inst.Definition.Name).Msg("task failed")
		return err
	}

	inst.Status = types.TaskSuccess
	metrics.TasksTotal.WithLabelValues("success", inst.Definition.Driver).Inc()
	if bus != nil {
		bus.Publish(&events.Event{ID: inst.ID, Type: events.EventTaskSucceeded, Message: inst.Definition.Name})
	}

	// Bind each provided symbol to its own result by position, matching
	// the driver contract's "one result per provided symbol" shape,
	// rather than broadcasting a single result to every symbol.
	for i, sym := range inst.Definition.Provides {
		var payload interface{}
		switch {
		case i < len(results):
			payload = results[i].Data
		case len(results) > 0:
			payload = results[len(results)-1].Data
		}
		if err := symbols.Set(sym, inst.ID, payload); err != nil {
			return err
		}
	}

	logger.Info().Str("task", inst.Definition.Name).Dur("duration", inst.FinishedAt.Sub(inst.StartedAt)).Msg("task succeeded")
	return nil
}

// Serial runs the graph on a single goroutine, one task at a time, in a
// valid topological order. It stops at the first failing task.
type Serial struct{
	Bus *events.Broker
}

// NewSerial creates a serial scheduler.
func NewSerial(bus *events.Broker) *Serial {
	return &Serial{Bus: bus}
}

// Run executes every task in g in topological order.
func (s *Serial) Run(ctx context.Context, g *graph.Graph, symbols *SymbolTable) error {
	for _, id := range g.TopoOrder() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		inst := g.Tasks[id]
		if err := execute(ctx, inst, symbols, s.Bus); err != nil {
			return fmt.Errorf("task %s: %w", inst.Definition.Name, err)
		}
	}
	return nil
}

// Parallel runs the graph across a bounded worker pool, dispatching a
// task as soon as every task it requires has completed successfully.
type Parallel struct {
	Workers int
	Bus     *events.Broker
}

// NewParallel creates a parallel scheduler with the given worker count
// (DefaultWorkers if workers <= 0).
func NewParallel(workers int, bus *events.Broker) *Parallel {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Parallel{Workers: workers, Bus: bus}
}

// Run dispatches ready tasks to a semaphore-bounded worker pool, fanning
// children out as each parent finishes. A failed task's dependents are
// never dispatched; unrelated tasks keep running, and the first task error
// is returned once every in-flight task has drained.
func (p *Parallel) Run(ctx context.Context, g *graph.Graph, symbols *SymbolTable) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(p.Workers))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	var dispatch func(id string)
	dispatch = func(id string) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			inst := g.Tasks[id]
			err := execute(ctx, inst, symbols, p.Bus)

			mu.Lock()
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("task %s: %w", inst.Definition.Name, err)
			}
			ready := []string{}
			if err == nil {
				ready = g.Release(id)
			}
			mu.Unlock()

			for _, next := range ready {
				dispatch(next)
			}
		}()
	}

	for _, id := range g.Roots() {
		dispatch(id)
	}

	wg.Wait()
	return firstErr
}
