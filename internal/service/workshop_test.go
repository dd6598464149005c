package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshophq/workshop-backend/internal/model"
	"github.com/workshophq/workshop-backend/internal/service"
	"github.com/workshophq/workshop-backend/internal/storetest"
)

func newWorkshopService(store *storetest.Store) *service.WorkshopService {
	return service.NewWorkshopService(store.Workshops(), fixedClock())
}

func TestCreateWorkshop(t *testing.T) {
	ctx := context.Background()

	t.Run("future range is upcoming", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		id, err := svc.Create(ctx, &model.Workshop{
			Title:     "Intro to Go",
			StartDate: today.AddDays(5),
			EndDate:   today.AddDays(10),
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		saved, ok := store.Workshop(id)
		require.True(t, ok)
		assert.Equal(t, model.StateUpcoming, saved.State)
		assert.True(t, saved.CreatedDate.Equal(today))
		assert.False(t, saved.Deleted)
	})

	t.Run("starting today is ongoing", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		id, err := svc.Create(ctx, &model.Workshop{
			Title:     "Same day",
			StartDate: today,
			EndDate:   today.AddDays(2),
		})
		require.NoError(t, err)

		saved, _ := store.Workshop(id)
		assert.Equal(t, model.StateOngoing, saved.State)
	})

	t.Run("missing tutors stored as empty list", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		id, err := svc.Create(ctx, &model.Workshop{
			Title:     "No tutors yet",
			StartDate: today.AddDays(5),
			EndDate:   today.AddDays(10),
		})
		require.NoError(t, err)

		// Nil would reach the store (and a NOT NULL tutors column) as
		// SQL NULL.
		saved, _ := store.Workshop(id)
		require.NotNil(t, saved.Tutors)
		assert.Empty(t, saved.Tutors)
	})

	t.Run("start in the past fails", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		_, err := svc.Create(ctx, &model.Workshop{
			StartDate: today.AddDays(-1),
			EndDate:   today.AddDays(3),
		})
		assert.ErrorIs(t, err, model.ErrPastDate)
	})

	t.Run("end before start fails", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		_, err := svc.Create(ctx, &model.Workshop{
			StartDate: today.AddDays(5),
			EndDate:   today.AddDays(1),
		})
		assert.ErrorIs(t, err, model.ErrInvalidRange)
	})

	t.Run("nothing persisted on validation failure", func(t *testing.T) {
		store := storetest.New()
		svc := newWorkshopService(store)

		_, err := svc.Create(ctx, &model.Workshop{
			StartDate: today.AddDays(-2),
			EndDate:   today.AddDays(-1),
		})
		require.Error(t, err)

		active, err := store.Workshops().ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

func TestEditWorkshopNotFound(t *testing.T) {
	svc := newWorkshopService(storetest.New())
	err := svc.Edit(context.Background(), "missing", model.WorkshopPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEditWorkshopDateRules(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		start   model.Date // existing range
		end     model.Date
		patch   model.WorkshopPatch
		wantErr error
	}{
		{
			name:  "ongoing start change rejected",
			start: today.AddDays(-2), end: today.AddDays(2),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-1)),
				EndDate:   datePtr(today.AddDays(2)),
			},
			wantErr: model.ErrInvariantViolation,
		},
		{
			name:  "ongoing same start accepted",
			start: today.AddDays(-2), end: today.AddDays(2),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-2)),
				EndDate:   datePtr(today.AddDays(5)),
			},
		},
		{
			name:  "ongoing end into the past rejected",
			start: today.AddDays(-2), end: today.AddDays(2),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-2)),
				EndDate:   datePtr(today.AddDays(-1)),
			},
			wantErr: model.ErrPastDate,
		},
		{
			name:  "ongoing start-only always rejected",
			start: today.AddDays(-2), end: today.AddDays(2),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-2)), // even the unchanged value
			},
			wantErr: model.ErrInvariantViolation,
		},
		{
			name:  "ongoing end-only extension accepted",
			start: today.AddDays(-2), end: today.AddDays(2),
			patch: model.WorkshopPatch{EndDate: datePtr(today.AddDays(10))},
		},
		{
			name:  "upcoming start into the past rejected",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-1)),
				EndDate:   datePtr(today.AddDays(6)),
			},
			wantErr: model.ErrPastDate,
		},
		{
			name:  "upcoming moved earlier but still future accepted",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(1)),
				EndDate:   datePtr(today.AddDays(6)),
			},
		},
		{
			name:  "upcoming inverted range rejected",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(6)),
				EndDate:   datePtr(today.AddDays(3)),
			},
			wantErr: model.ErrInvalidRange,
		},
		{
			name:  "upcoming start-only past existing end rejected",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(8)),
			},
			wantErr: model.ErrInvalidRange,
		},
		{
			name:  "upcoming start-only in the past rejected",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-1)),
			},
			wantErr: model.ErrPastDate,
		},
		{
			name:  "end-only before existing start rejected",
			start: today.AddDays(3), end: today.AddDays(6),
			patch: model.WorkshopPatch{
				EndDate: datePtr(today.AddDays(2)),
			},
			wantErr: model.ErrInvalidRange,
		},
		{
			name:  "completed stays completed accepted",
			start: today.AddDays(-10), end: today.AddDays(-5),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-12)),
				EndDate:   datePtr(today.AddDays(-6)),
			},
		},
		{
			name:  "completed cannot be reopened",
			start: today.AddDays(-10), end: today.AddDays(-5),
			patch: model.WorkshopPatch{
				StartDate: datePtr(today.AddDays(-10)),
				EndDate:   datePtr(today.AddDays(5)),
			},
			wantErr: model.ErrIllegalTransition,
		},
		{
			name:  "completed end-only before today accepted",
			start: today.AddDays(-10), end: today.AddDays(-5),
			patch: model.WorkshopPatch{EndDate: datePtr(today.AddDays(-3))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storetest.New()
			store.SeedWorkshop(workshopAt("w1", tt.start, tt.end))
			svc := newWorkshopService(store)

			err := svc.Edit(ctx, "w1", tt.patch)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				// Failed edits leave the record untouched.
				saved, _ := store.Workshop("w1")
				assert.True(t, saved.StartDate.Equal(tt.start))
				assert.True(t, saved.EndDate.Equal(tt.end))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEditWorkshopStateRederivedOnDateChange(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	store.SeedWorkshop(workshopAt("w1", today.AddDays(3), today.AddDays(6)))
	svc := newWorkshopService(store)

	// Pulling the start to today flips UPCOMING to ONGOING.
	err := svc.Edit(ctx, "w1", model.WorkshopPatch{
		StartDate: datePtr(today),
		EndDate:   datePtr(today.AddDays(6)),
	})
	require.NoError(t, err)

	saved, _ := store.Workshop("w1")
	assert.Equal(t, model.StateOngoing, saved.State)
}

func TestEditWorkshopStateKeptWithoutDateChange(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()

	// Stored state is deliberately stale: dates say COMPLETED but the
	// reconciler has not run yet. A non-date edit must not touch it.
	w := workshopAt("w1", today.AddDays(-10), today.AddDays(-5))
	w.State = model.StateOngoing
	store.SeedWorkshop(w)
	svc := newWorkshopService(store)

	require.NoError(t, svc.Edit(ctx, "w1", model.WorkshopPatch{Title: strPtr("Renamed")}))

	saved, _ := store.Workshop("w1")
	assert.Equal(t, "Renamed", saved.Title)
	assert.Equal(t, model.StateOngoing, saved.State)
}

func TestEditWorkshopPartialFields(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	w := workshopAt("w1", today.AddDays(3), today.AddDays(6))
	w.Topic = "Concurrency"
	w.Tutors = []string{"Ada"}
	store.SeedWorkshop(w)
	svc := newWorkshopService(store)

	err := svc.Edit(ctx, "w1", model.WorkshopPatch{
		Title:  strPtr("New title"),
		Tutors: &[]string{"Ada", "Rob"},
	})
	require.NoError(t, err)

	saved, _ := store.Workshop("w1")
	assert.Equal(t, "New title", saved.Title)
	assert.Equal(t, "Concurrency", saved.Topic) // untouched
	assert.Equal(t, []string{"Ada", "Rob"}, saved.Tutors)
}

func TestSoftDeleteWorkshop(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	store.SeedWorkshop(workshopAt("w1", today.AddDays(3), today.AddDays(6)))
	svc := newWorkshopService(store)

	require.NoError(t, svc.SoftDelete(ctx, "w1"))

	saved, _ := store.Workshop("w1")
	assert.True(t, saved.Deleted)

	// Second delete conflicts, missing workshop is not found.
	assert.ErrorIs(t, svc.SoftDelete(ctx, "w1"), model.ErrAlreadyDeleted)
	assert.ErrorIs(t, svc.SoftDelete(ctx, "nope"), model.ErrNotFound)

	// Soft-deleted workshops drop out of the listings.
	ws, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestStateListings(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	store.SeedWorkshop(workshopAt("up", today.AddDays(3), today.AddDays(6)))
	store.SeedWorkshop(workshopAt("on", today.AddDays(-1), today.AddDays(1)))
	store.SeedWorkshop(workshopAt("done", today.AddDays(-6), today.AddDays(-3)))
	svc := newWorkshopService(store)

	up, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	on, err := svc.Ongoing(ctx)
	require.NoError(t, err)
	done, err := svc.Completed(ctx)
	require.NoError(t, err)

	require.Len(t, up, 1)
	require.Len(t, on, 1)
	require.Len(t, done, 1)
	assert.Equal(t, "up", up[0].ID)
	assert.Equal(t, "on", on[0].ID)
	assert.Equal(t, "done", done[0].ID)
}
