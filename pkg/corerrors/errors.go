// Package corerrors defines the typed error conditions task-core surfaces
// while loading artifacts, validating them, reconciling services, and
// running the task graph. Each mirrors one exception class from the
// original Python implementation's exceptions module.
package corerrors

import "fmt"

// InvalidFileDataError is returned when an artifact file cannot be read or
// parsed as YAML at all (as opposed to failing schema validation).
type InvalidFileDataError struct {
	Path string
	Err  error
}

func (e *InvalidFileDataError) Error() string {
	return fmt.Sprintf("invalid file data in %s: %v", e.Path, e.Err)
}

func (e *InvalidFileDataError) Unwrap() error { return e.Err }

// ValidationError is returned when an artifact fails JSON-schema
// validation or a structural invariant (e.g. duplicate provides).
type ValidationError struct {
	Artifact string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation: %s", e.Artifact, e.Reason)
}

// InvalidRoleError is returned when a host references a role name that is
// not declared in the inventory's or the roles artifact's roles list.
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role: %s", e.Role)
}

// InvalidServiceError is returned when the roles -> services projection
// names a service that was never loaded from the services directory.
type InvalidServiceError struct {
	Service string
	Reason  string
}

func (e *InvalidServiceError) Error() string {
	return fmt.Sprintf("invalid service %s: %s", e.Service, e.Reason)
}

// DependencyFailureError is returned when the task graph cannot be built
// because one or more required symbols have no provider, or a cycle
// exists among the declared dependencies.
type DependencyFailureError struct {
	Missing []string
	Cycle   []string
}

func (e *DependencyFailureError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("dependency cycle detected: %v", e.Cycle)
	}
	return fmt.Sprintf("unresolved dependencies, no provider for: %v", e.Missing)
}

// ExecutionFailedError is returned when a driver's Execute reports
// failure for one or more hosts.
type ExecutionFailedError struct {
	Task   string
	Reason string
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("task %s execution failed: %s", e.Task, e.Reason)
}

// UnavailableError is returned when an external dependency a driver needs
// (a binary, a remote endpoint) cannot be reached or does not exist.
type UnavailableError struct {
	What string
	Err  error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.What, e.Err)
	}
	return fmt.Sprintf("%s unavailable", e.What)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
