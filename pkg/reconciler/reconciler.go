// Package reconciler drives the needed-by -> requires reconciliation
// pass that pkg/service implements, wrapping it with the logging and
// timing shape the original Reconciler used for its periodic
// node/container reconciliation cycles. task-core reconciles once per
// run rather than on a ticker, since a run operates on one fixed set of
// artifacts rather than a continuously changing cluster.
package reconciler

import (
	"github.com/oshied/task-core/pkg/log"
	"github.com/oshied/task-core/pkg/metrics"
	"github.com/oshied/task-core/pkg/service"
	"github.com/oshied/task-core/pkg/types"
	"github.com/rs/zerolog"
)

// Reconciler runs the cross-service needed-by -> requires pass.
type Reconciler struct {
	logger zerolog.Logger
}

// New creates a Reconciler.
func New() *Reconciler {
	return &Reconciler{logger: log.WithComponent("reconciler")}
}

// Reconcile mutates every service's task Requires lists in place and
// records the cycle's duration and count.
func (r *Reconciler) Reconcile(services []*types.Service) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	before := 0
	for _, svc := range services {
		for _, t := range svc.Tasks {
			before += len(t.Requires)
		}
	}

	service.Reconcile(services)

	after := 0
	for _, svc := range services {
		for _, t := range svc.Tasks {
			after += len(t.Requires)
		}
	}

	r.logger.Info().
		Int("services", len(services)).
		Int("requires_before", before).
		Int("requires_after", after).
		Msg("needed-by reconciliation complete")
}
