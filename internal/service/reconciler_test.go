package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshophq/workshop-backend/internal/model"
	"github.com/workshophq/workshop-backend/internal/service"
	"github.com/workshophq/workshop-backend/internal/storetest"
)

// seedDriftedWorkshops stores workshops whose recorded state has
// drifted behind their dates, as after a day passes with no edits.
func seedDriftedWorkshops(store *storetest.Store) {
	// Was UPCOMING when created, its start date has now arrived.
	started := workshopAt("started", today, today.AddDays(2))
	started.State = model.StateUpcoming
	store.SeedWorkshop(started)

	// Was ONGOING, its end date has now passed.
	ended := workshopAt("ended", today.AddDays(-5), today.AddDays(-1))
	ended.State = model.StateOngoing
	store.SeedWorkshop(ended)

	// Still correct, nothing to do.
	store.SeedWorkshop(workshopAt("future", today.AddDays(3), today.AddDays(6)))

	// Drifted but soft-deleted: must not be touched.
	deleted := workshopAt("gone", today.AddDays(-5), today.AddDays(-1))
	deleted.State = model.StateOngoing
	deleted.Deleted = true
	store.SeedWorkshop(deleted)
}

func TestReconcilerRun(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	seedDriftedWorkshops(store)
	workshops := store.Workshops()
	rec := service.NewStateReconciler(workshops, fixedClock())

	summary, err := rec.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total) // soft-deleted workshop excluded
	assert.Equal(t, 2, summary.Changed)
	assert.Equal(t, 1, summary.Upcoming)
	assert.Equal(t, 1, summary.Ongoing)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, workshops.SaveAllCalls) // staged changes land in one batch

	started, _ := store.Workshop("started")
	assert.Equal(t, model.StateOngoing, started.State)
	ended, _ := store.Workshop("ended")
	assert.Equal(t, model.StateCompleted, ended.State)
	gone, _ := store.Workshop("gone")
	assert.Equal(t, model.StateOngoing, gone.State)
}

func TestReconcilerIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	seedDriftedWorkshops(store)
	rec := service.NewStateReconciler(store.Workshops(), fixedClock())

	first, err := rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.Changed)

	second, err := rec.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Changed)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Upcoming, second.Upcoming)
	assert.Equal(t, first.Ongoing, second.Ongoing)
	assert.Equal(t, first.Completed, second.Completed)
}

func TestReconcilerNoActiveWorkshops(t *testing.T) {
	rec := service.NewStateReconciler(storetest.New().Workshops(), fixedClock())
	summary, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ReconcileSummary{}, summary)
}

// A scheduled run and a manual trigger arriving together serialize on
// the reconciler's lock: across all concurrent runs exactly one stages
// the drift, the rest see a consistent store and change nothing.
func TestReconcilerConcurrentRunsSerialize(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	seedDriftedWorkshops(store)
	rec := service.NewStateReconciler(store.Workshops(), fixedClock())

	const runs = 8
	summaries := make([]model.ReconcileSummary, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	wg.Add(runs)
	for i := 0; i < runs; i++ {
		go func(i int) {
			defer wg.Done()
			summaries[i], errs[i] = rec.Run(ctx)
		}(i)
	}
	wg.Wait()

	totalChanged := 0
	for i := range summaries {
		require.NoError(t, errs[i])
		totalChanged += summaries[i].Changed
	}
	assert.Equal(t, 2, totalChanged)
}
