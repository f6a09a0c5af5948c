// Package service decodes service.yaml artifacts into types.Service values
// and reconciles the "needed-by" declarations of every service into
// concrete "requires" entries on the tasks that provide the requested
// symbols — the cross-service dependency step described in the original
// manager's get_tasks_needed_by / update_task_requires pair.
package service

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/loader"
	"github.com/oshied/task-core/pkg/schema"
	"github.com/oshied/task-core/pkg/types"
	"gopkg.in/yaml.v3"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Decode validates and unmarshals a merged service document into a
// types.Service value.
func Decode(doc map[string]interface{}) (*types.Service, error) {
	if err := schema.Validate(schema.Service, "service", doc); err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: "service", Err: err}
	}
	var svc types.Service
	if err := yaml.Unmarshal(raw, &svc); err != nil {
		return nil, &corerrors.InvalidFileDataError{Path: "service", Err: err}
	}
	if svc.Version != "" && !versionPattern.MatchString(svc.Version) {
		return nil, &corerrors.ValidationError{
			Artifact: svc.Name,
			Reason:   fmt.Sprintf("version %q is not a dotted major.minor.patch triple", svc.Version),
		}
	}
	return &svc, nil
}

// LoadDir reads every service artifact in dir (one file per service, or a
// directory merged per-file) and decodes each into a types.Service.
func LoadDir(dir string) ([]*types.Service, error) {
	entries, err := loader.LoadEach(dir)
	if err != nil {
		return nil, err
	}
	services := make([]*types.Service, 0, len(entries))
	for _, doc := range entries {
		svc, err := Decode(doc)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

// GetTasksNeededBy scans every task in every service for "needed-by"
// declarations and returns, for each target symbol, the sorted union of
// symbols provided by every task that declared it — i.e. the set of
// symbols that should be added to the requires list of whatever task
// provides the target symbol.
func GetTasksNeededBy(services []*types.Service) map[string][]string {
	needed := map[string]map[string]struct{}{}

	for _, svc := range services {
		for _, t := range svc.Tasks {
			for _, target := range t.NeededBy {
				if needed[target] == nil {
					needed[target] = map[string]struct{}{}
				}
				for _, p := range t.Provides {
					needed[target][p] = struct{}{}
				}
			}
		}
	}

	out := make(map[string][]string, len(needed))
	for target, set := range needed {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[target] = vals
	}
	return out
}

// UpdateTaskRequires mutates every task in services in place, unioning
// its existing Requires with updates[symbol] for every symbol the task
// provides. This is the second pass of needed-by reconciliation: the
// provider of a requested symbol gains a dependency on whoever asked for
// it via needed-by.
func UpdateTaskRequires(services []*types.Service, updates map[string][]string) {
	for _, svc := range services {
		for i := range svc.Tasks {
			t := &svc.Tasks[i]
			seen := make(map[string]struct{}, len(t.Requires))
			for _, r := range t.Requires {
				seen[r] = struct{}{}
			}
			for _, p := range t.Provides {
				for _, add := range updates[p] {
					if add == p {
						continue
					}
					if _, ok := seen[add]; !ok {
						seen[add] = struct{}{}
						t.Requires = append(t.Requires, add)
					}
				}
			}
			sort.Strings(t.Requires)
		}
	}
}

// Reconcile runs the full needed-by -> requires reconciliation over a set
// of services, mutating each service's tasks in place.
func Reconcile(services []*types.Service) {
	updates := GetTasksNeededBy(services)
	UpdateTaskRequires(services, updates)
}
