// Package manager is the top-level orchestration entry point: it loads
// the three YAML artifacts, validates and reconciles them, builds the
// task dependency graph, and runs the configured scheduler over it.
// Grounded on the original manager.Manager's role as the single object a
// CLI command drives, and on the original Python manager's operation
// order (validate -> load -> reconcile -> graph -> schedule).
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/events"
	"github.com/oshied/task-core/pkg/graph"
	"github.com/oshied/task-core/pkg/inventory"
	"github.com/oshied/task-core/pkg/loader"
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/metrics"
	"github.com/oshied/task-core/pkg/reconciler"
	"github.com/oshied/task-core/pkg/scheduler"
	"github.com/oshied/task-core/pkg/service"
	"github.com/oshied/task-core/pkg/types"
	"github.com/rs/zerolog"
)

// Config holds everything a Manager needs to locate and interpret its
// artifacts and pick an execution strategy.
type Config struct {
	InventoryPath string
	RolesPath     string
	ServicesDir   string
	MergeMode     loader.MergeMode
	Parallel      bool
	Workers       int
	Noop          bool
}

// Manager loads artifacts, reconciles services, builds the task graph,
// and schedules its execution.
type Manager struct {
	cfg       Config
	logger    zerolog.Logger
	Bus       *events.Broker
	Inventory *types.Inventory
	Services  []*types.Service
	Graph     *graph.Graph
	Symbols   *scheduler.SymbolTable
}

// New creates a Manager for the given configuration.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg,
		logger:  log.WithComponent("manager"),
		Bus:     events.NewBroker(),
		Symbols: scheduler.NewSymbolTable(),
	}
}

// Load reads and validates the inventory, roles, and service artifacts.
func (m *Manager) Load() error {
	inv, err := inventory.Load(m.cfg.InventoryPath, m.cfg.MergeMode)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	if m.cfg.RolesPath != "" {
		if err := inventory.LoadRoles(m.cfg.RolesPath, m.cfg.MergeMode, inv); err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
	}
	if err := inventory.ValidateRoles(inv); err != nil {
		return fmt.Errorf("validate inventory: %w", err)
	}
	m.Inventory = inv

	services, err := service.LoadDir(m.cfg.ServicesDir)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}
	m.Services = services

	if err := AssignHosts(inv, services); err != nil {
		return fmt.Errorf("project roles onto services: %w", err)
	}

	m.logger.Info().
		Int("hosts", len(inv.Hosts)).
		Int("roles", len(inv.Roles)).
		Int("services", len(services)).
		Msg("artifacts loaded")
	return nil
}

// Reconcile runs the needed-by -> requires reconciliation pass across
// every loaded service.
func (m *Manager) Reconcile() {
	reconciler.New().Reconcile(m.Services)
}

// AssignHosts projects every host in inv onto the services its role
// names, mirroring the original manager's hosts_to_services: for each
// host, look up its role's services and add the host to each one. A
// service name that does not resolve among services is a fatal
// InvalidServiceError, matching "unresolved service references are a
// fatal error" (spec.md §3, "Roles document").
func AssignHosts(inv *types.Inventory, services []*types.Service) error {
	byName := make(map[string]*types.Service, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
	}
	for _, h := range inv.Hosts {
		for _, svcName := range inventory.GetServices(inv, h.Role) {
			svc, ok := byName[svcName]
			if !ok {
				return &corerrors.InvalidServiceError{Service: svcName, Reason: "service is not defined"}
			}
			svc.AddHost(h.Name)
		}
	}
	return nil
}

// BuildGraph assembles the dependency graph from every loaded service's
// task definitions, visiting services in load order and tasks in
// declaration order within each service (the tie-break scheduling relies
// on, since TaskInstance.ID is a random UUID). Services with no projected
// hosts are skipped with a warning, matching the original's
// "skip services with no target hosts" behavior. If taskTypeOverride is
// non-empty, every task instance is built with that driver instead of its
// configured one — the mechanism noop/dry-run mode uses to force the
// "noop" driver without discarding the rest of the graph shape.
func (m *Manager) BuildGraph(taskTypeOverride string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GraphBuildDuration)

	var instances []*types.TaskInstance
	order := 0
	for _, svc := range m.Services {
		if len(svc.Hosts) == 0 {
			m.logger.Warn().Str("service", svc.Name).Msg("skipping service with no target hosts")
			continue
		}
		for _, def := range svc.Tasks {
			if taskTypeOverride != "" {
				def.Driver = taskTypeOverride
			}
			instances = append(instances, &types.TaskInstance{
				ID:         uuid.NewString(),
				Service:    svc.Name,
				Definition: def,
				Hosts:      svc.Hosts,
				Status:     types.TaskPending,
				Order:      order,
			})
			order++
		}
	}

	g, err := graph.Build(instances)
	if err != nil {
		return err
	}
	m.Graph = g
	return nil
}

// Run executes the full pipeline: load, reconcile, build the graph, then
// schedule it serially or in parallel per cfg.Parallel. Noop mode forces
// every task instance onto the "noop" driver at build time and still runs
// the scheduler over the real graph, so every task actually executes
// (against its projected hosts) without touching any other driver.
func (m *Manager) Run(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RunDuration)

	m.Bus.Start()
	defer m.Bus.Stop()

	if err := m.Load(); err != nil {
		return err
	}
	m.Reconcile()

	override := ""
	if m.cfg.Noop {
		override = "noop"
	}
	if err := m.BuildGraph(override); err != nil {
		return err
	}

	if m.cfg.Noop {
		m.logger.Info().Int("tasks", len(m.Graph.Tasks)).Msg("noop run: every task forced to the noop driver")
	}

	var sched scheduler.Scheduler
	if m.cfg.Parallel {
		sched = scheduler.NewParallel(m.cfg.Workers, m.Bus)
	} else {
		sched = scheduler.NewSerial(m.Bus)
	}

	start := time.Now()
	err := sched.Run(ctx, m.Graph, m.Symbols)
	m.logger.Info().Dur("duration", time.Since(start)).Msg("run finished")
	m.Bus.Publish(&events.Event{Type: events.EventRunFinished})

	if err != nil {
		if depErr, ok := err.(*corerrors.DependencyFailureError); ok {
			return depErr
		}
		return err
	}
	return nil
}

// Summary returns a coarse count of task outcomes for reporting.
func (m *Manager) Summary() (succeeded, failed, skipped, pending int) {
	if m.Graph == nil {
		return
	}
	for _, t := range m.Graph.Tasks {
		switch t.Status {
		case types.TaskSuccess:
			succeeded++
		case types.TaskFailed:
			failed++
		case types.TaskSkipped:
			skipped++
		default:
			pending++
		}
	}
	return
}
