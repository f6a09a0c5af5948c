// Package graph builds the dependency-ordered task graph from the task
// instances of every reconciled service: an edge runs from the task that
// provides a symbol to every task that requires it. The resulting graph
// is checked for missing providers and cycles before a scheduler ever
// touches it, matching the original manager's build-time validation.
package graph

import (
	"sort"

	"github.com/oshied/task-core/pkg/corerrors"
	"github.com/oshied/task-core/pkg/types"
)

// Graph is an adjacency-map DAG over task instance IDs.
type Graph struct {
	Tasks map[string]*types.TaskInstance
	// edges[id] is the set of task IDs that depend on id (outgoing, for
	// scheduling children once a task finishes).
	edges map[string]map[string]struct{}
	// indegree[id] counts how many unresolved requires id still has.
	indegree map[string]int
}

// Build assembles every task in instances into a Graph, wiring provides
// to requires across service boundaries. Duplicate providers of the same
// symbol and unresolved requires are both reported as
// corerrors.DependencyFailureError (unresolved) or
// corerrors.ValidationError (duplicate), matching the single-writer-per-
// symbol invariant.
func Build(instances []*types.TaskInstance) (*Graph, error) {
	provider := make(map[string]string, len(instances)) // symbol -> task id

	for _, t := range instances {
		for _, sym := range t.Definition.Provides {
			if existing, ok := provider[sym]; ok && existing != t.ID {
				return nil, &corerrors.ValidationError{
					Artifact: t.Service,
					Reason:   "symbol " + sym + " is provided by both " + existing + " and " + t.ID,
				}
			}
			provider[sym] = t.ID
		}
	}

	g := &Graph{
		Tasks:    make(map[string]*types.TaskInstance, len(instances)),
		edges:    make(map[string]map[string]struct{}, len(instances)),
		indegree: make(map[string]int, len(instances)),
	}
	for _, t := range instances {
		g.Tasks[t.ID] = t
		g.edges[t.ID] = map[string]struct{}{}
	}

	var missing []string
	for _, t := range instances {
		for _, req := range t.Definition.Requires {
			p, ok := provider[req]
			if !ok {
				missing = append(missing, req)
				continue
			}
			if p == t.ID {
				continue
			}
			if _, dup := g.edges[p][t.ID]; !dup {
				g.edges[p][t.ID] = struct{}{}
				g.indegree[t.ID]++
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &corerrors.DependencyFailureError{Missing: missing}
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		return nil, &corerrors.DependencyFailureError{Cycle: cycle}
	}

	return g, nil
}

// byOrder sorts task IDs by their TaskInstance.Order (service-load-order
// then task-declaration-order within the service), breaking remaining
// ties by ID so the sort stays total. Order, not ID, is the correct tie-
// break key for ready-set scheduling: ID is a random UUID and carries no
// information about declaration order.
func (g *Graph) byOrder(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		oi, oj := g.Tasks[ids[i]].Order, g.Tasks[ids[j]].Order
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
}

// Roots returns the IDs of every task with no unresolved dependency —
// the initial ready set for a scheduler, in service-load-order then
// task-order.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.Tasks {
		if g.indegree[id] == 0 {
			roots = append(roots, id)
		}
	}
	g.byOrder(roots)
	return roots
}

// Children returns the IDs of tasks that depend on id, in service-load-
// order then task-order.
func (g *Graph) Children(id string) []string {
	children := make([]string, 0, len(g.edges[id]))
	for c := range g.edges[id] {
		children = append(children, c)
	}
	g.byOrder(children)
	return children
}

// Release decrements the indegree of every child of id and returns the
// subset that became ready (indegree reached zero). Call once per task
// as it completes.
func (g *Graph) Release(id string) []string {
	var ready []string
	for _, c := range g.Children(id) {
		g.indegree[c]--
		if g.indegree[c] == 0 {
			ready = append(ready, c)
		}
	}
	return ready
}

// TopoOrder returns all task IDs in one valid dependency order, using
// Kahn's algorithm. It does not mutate the graph's live indegree
// counters (used by Release during scheduling).
func (g *Graph) TopoOrder() []string {
	indeg := make(map[string]int, len(g.indegree))
	for id, n := range g.indegree {
		indeg[id] = n
	}
	for id := range g.Tasks {
		if _, ok := indeg[id]; !ok {
			indeg[id] = 0
		}
	}

	queue := g.Roots()
	order := make([]string, 0, len(g.Tasks))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, c := range g.Children(id) {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
		g.byOrder(queue)
	}
	return order
}

func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Tasks))
	var path []string

	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	g.byOrder(ids)

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		path = append(path, id)
		for _, c := range g.Children(id) {
			switch color[c] {
			case gray:
				return append(append([]string{}, path...), c)
			case white:
				if cyc := visit(c); cyc != nil {
					return cyc
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cyc := visit(id); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}
