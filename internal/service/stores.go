package service

import (
	"context"
	"time"

	"github.com/workshophq/workshop-backend/internal/model"
)

// WorkshopStore persists workshops. Get resolves soft-deleted
// workshops too; the List methods exclude them.
type WorkshopStore interface {
	Get(ctx context.Context, id string) (*model.Workshop, error)
	ListActive(ctx context.Context) ([]model.Workshop, error)
	ListActiveByState(ctx context.Context, state model.WorkshopState) ([]model.Workshop, error)
	Save(ctx context.Context, w *model.Workshop) error
	SaveAll(ctx context.Context, ws []*model.Workshop) error
}

// RegistrationStore persists registrations. Insert must enforce
// uniqueness on (attendee, workshop) and return
// model.ErrAlreadyRegistered when a concurrent insert wins the race.
type RegistrationStore interface {
	Exists(ctx context.Context, attendeeID, workshopID string) (bool, error)
	Get(ctx context.Context, attendeeID, workshopID string) (*model.Registration, error)
	Insert(ctx context.Context, r *model.Registration) error
	Delete(ctx context.Context, attendeeID, workshopID string) error
	Save(ctx context.Context, r *model.Registration) error

	ListWorkshopsByAttendee(ctx context.Context, attendeeID string) ([]model.Workshop, error)
	ListCompletedPendingFeedback(ctx context.Context, attendeeID string) ([]model.Workshop, error)
	ListAttended(ctx context.Context, attendeeID string) ([]model.Workshop, error)
	ListAttendeesForWorkshop(ctx context.Context, workshopID string) ([]model.Attendee, error)

	ListFeedbackForWorkshop(ctx context.Context, workshopID string) ([]model.FeedbackEntry, error)
	DistinctWorkshopIDsWithFeedback(ctx context.Context) ([]string, error)
	AverageRating(ctx context.Context, workshopID string) (float64, error)
}

// AttendeeStore persists attendee profiles.
type AttendeeStore interface {
	Get(ctx context.Context, id string) (*model.Attendee, error)
	Insert(ctx context.Context, a *model.Attendee) error
	List(ctx context.Context) ([]model.Attendee, error)
}

// Clock supplies the current time. Injecting it keeps date-boundary
// behaviour deterministic in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
func SystemClock() Clock { return ClockFunc(time.Now) }
