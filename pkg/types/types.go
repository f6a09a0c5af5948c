// Package types holds the data model shared across task-core: hosts and
// roles loaded from inventory, service/task definitions loaded from service
// files, and the task instances and results produced at run time.
package types

import "time"

// Host is a single managed machine declared in the inventory artifact.
type Host struct {
	Name string            `yaml:"name" json:"name"`
	Role string            `yaml:"role" json:"role"`
	Vars map[string]string `yaml:"vars,omitempty" json:"vars,omitempty"`
}

// Role groups a set of variables shared by every host whose Role field
// contains the role name (substring match, not equality — see
// inventory.GetRoleHosts), and names the services a host playing this
// role is projected onto (see inventory.GetServices).
type Role struct {
	Name     string            `yaml:"name" json:"name"`
	Vars     map[string]string `yaml:"vars,omitempty" json:"vars,omitempty"`
	Services []string          `yaml:"services,omitempty" json:"services,omitempty"`
}

// Inventory is the fully decoded inventory.yaml artifact: a flat list of
// hosts plus a flat list of roles.
type Inventory struct {
	Hosts []Host `yaml:"hosts" json:"hosts"`
	Roles []Role `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// TaskDefinition is one task declared under a service's "tasks" list.
// Driver holds the registry name used to build the executable Task. A
// task has no host-targeting field of its own — the hosts it runs
// against come from the hosts its owning Service accumulated during the
// roles -> services projection (see Service.AddHost).
type TaskDefinition struct {
	Name     string                 `yaml:"name" json:"name"`
	Driver   string                 `yaml:"driver" json:"driver"`
	Provides []string               `yaml:"provides,omitempty" json:"provides,omitempty"`
	Requires []string               `yaml:"requires,omitempty" json:"requires,omitempty"`
	NeededBy []string               `yaml:"needed-by,omitempty" json:"needed-by,omitempty"`
	Config   map[string]interface{} `yaml:"config,omitempty" json:"config,omitempty"`
}

// Service is one decoded entry of a service.yaml artifact: a named,
// versioned bundle of task definitions. Hosts accumulates during the
// inventory's roles -> services projection (manager.AssignHosts) and is
// not part of the decoded YAML document itself.
type Service struct {
	Name    string           `yaml:"name" json:"name"`
	Version string           `yaml:"version,omitempty" json:"version,omitempty"`
	Tasks   []TaskDefinition `yaml:"tasks" json:"tasks"`
	Hosts   []string         `yaml:"-" json:"-"`
}

// AddHost appends host to the service's projected host set, matching the
// original Service.add_host, unless it is already present.
func (s *Service) AddHost(host string) {
	for _, h := range s.Hosts {
		if h == host {
			return
		}
	}
	s.Hosts = append(s.Hosts, host)
}

// TaskStatus is the lifecycle state of a TaskInstance as it moves through
// the scheduler.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskReady   TaskStatus = "ready"
	TaskRunning TaskStatus = "running"
	TaskSuccess TaskStatus = "success"
	TaskFailed  TaskStatus = "failed"
	TaskSkipped TaskStatus = "skipped"
)

// TaskInstance is a TaskDefinition bound to its owning service and the set
// of concrete hosts it targets, ready to be placed in the dependency graph.
// Order records the task's position in service-load-order-then-task-order
// (the order BuildGraph visited it in); it is the tie-break scheduling
// uses for deterministic ready-set ordering, since ID is a random UUID.
type TaskInstance struct {
	ID         string
	Service    string
	Definition TaskDefinition
	Hosts      []string
	Status     TaskStatus
	Order      int
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *TaskResult
	Err        error
}

// TaskResult is what a driver's Execute returns: a boolean status flag and
// a free-form data payload, mirroring the (status, data) pair the original
// Python tasks return.
type TaskResult struct {
	Status bool                   `json:"status"`
	Data   map[string]interface{} `json:"data,omitempty"`
}
