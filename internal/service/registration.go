package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/workshophq/workshop-backend/internal/model"
)

// RegistrationService enforces the per-(attendee, workshop) uniqueness
// invariant and the state gating around registration.
type RegistrationService struct {
	registrations RegistrationStore
	workshops     WorkshopStore
	attendees     AttendeeStore
	clock         Clock
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	registrations RegistrationStore,
	workshops WorkshopStore,
	attendees AttendeeStore,
	clock Clock,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		workshops:     workshops,
		attendees:     attendees,
		clock:         clock,
	}
}

// Register creates a registration for the pair. The existence check is
// a courtesy; the store's uniqueness constraint is what resolves a
// race between two concurrent calls, and its violation surfaces here
// as model.ErrAlreadyRegistered.
func (s *RegistrationService) Register(ctx context.Context, attendeeID, workshopID string) (*model.Registration, error) {
	if _, err := s.attendees.Get(ctx, attendeeID); err != nil {
		return nil, err
	}
	w, err := s.workshops.Get(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if w.State == model.StateCompleted {
		return nil, fmt.Errorf("%w: cannot register for a completed workshop",
			model.ErrIllegalState)
	}

	exists, err := s.registrations.Exists(ctx, attendeeID, workshopID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: attendee %s, workshop %s",
			model.ErrAlreadyRegistered, attendeeID, workshopID)
	}

	reg := &model.Registration{
		ID:           uuid.New().String(),
		AttendeeID:   attendeeID,
		WorkshopID:   workshopID,
		RegisteredAt: s.clock.Now(),
	}
	if err := s.registrations.Insert(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Deregister removes the pair's registration unless the workshop has
// already completed.
func (s *RegistrationService) Deregister(ctx context.Context, attendeeID, workshopID string) error {
	reg, err := s.registrations.Get(ctx, attendeeID, workshopID)
	if err != nil {
		return err
	}
	w, err := s.workshops.Get(ctx, reg.WorkshopID)
	if err != nil {
		return err
	}
	if w.State == model.StateCompleted {
		return fmt.Errorf("%w: cannot deregister from a completed workshop",
			model.ErrIllegalState)
	}
	return s.registrations.Delete(ctx, attendeeID, workshopID)
}

// RegisteredWorkshops lists every workshop the attendee is registered
// for.
func (s *RegistrationService) RegisteredWorkshops(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	return s.registrations.ListWorkshopsByAttendee(ctx, attendeeID)
}

// PendingFeedback lists completed workshops the attendee has not yet
// given feedback on.
func (s *RegistrationService) PendingFeedback(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	return s.registrations.ListCompletedPendingFeedback(ctx, attendeeID)
}

// AttendedWorkshops lists workshops with confirmed attendance.
func (s *RegistrationService) AttendedWorkshops(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	return s.registrations.ListAttended(ctx, attendeeID)
}

// WorkshopAttendees lists the attendees registered for one workshop.
func (s *RegistrationService) WorkshopAttendees(ctx context.Context, workshopID string) ([]model.Attendee, error) {
	if _, err := s.workshops.Get(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.registrations.ListAttendeesForWorkshop(ctx, workshopID)
}
