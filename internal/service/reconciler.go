package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/workshophq/workshop-backend/internal/model"
)

// StateReconciler recomputes every active workshop's lifecycle state
// from its dates, correcting drift caused by the passage of time. The
// scheduled daily run and the manual administrative trigger both call
// Run; a mutex keeps them from interleaving. Each workshop's new state
// depends only on its own dates, so back-to-back runs are idempotent.
type StateReconciler struct {
	workshops WorkshopStore
	clock     Clock

	mu sync.Mutex
}

// NewStateReconciler constructs a StateReconciler.
func NewStateReconciler(workshops WorkshopStore, clock Clock) *StateReconciler {
	return &StateReconciler{workshops: workshops, clock: clock}
}

// Run scans all non-deleted workshops, stages every state that no
// longer matches its date range, persists the staged changes in one
// batch, and reports the resulting distribution.
func (r *StateReconciler) Run(ctx context.Context) (model.ReconcileSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := model.DateOf(r.clock.Now())

	workshops, err := r.workshops.ListActive(ctx)
	if err != nil {
		return model.ReconcileSummary{}, fmt.Errorf("list active workshops: %w", err)
	}

	summary := model.ReconcileSummary{Total: len(workshops)}
	var staged []*model.Workshop

	for i := range workshops {
		w := &workshops[i]
		newState := model.DetermineState(w.StartDate, w.EndDate, today)

		switch newState {
		case model.StateUpcoming:
			summary.Upcoming++
		case model.StateOngoing:
			summary.Ongoing++
		case model.StateCompleted:
			summary.Completed++
		}

		if w.State != newState {
			w.State = newState
			staged = append(staged, w)
			summary.Changed++
		}
	}

	if len(staged) > 0 {
		if err := r.workshops.SaveAll(ctx, staged); err != nil {
			return model.ReconcileSummary{}, fmt.Errorf("save reconciled workshops: %w", err)
		}
	}
	return summary, nil
}
