// Package service implements the workshop lifecycle engine: business
// validation and orchestration between HTTP handlers and the stores.
// Services are a pure decision layer: they never log and never
// partially apply an operation that fails validation.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/workshophq/workshop-backend/internal/model"
)

// WorkshopService owns workshop creation, in-place edits, soft
// deletion, and the state-based listings.
type WorkshopService struct {
	workshops WorkshopStore
	clock     Clock
}

// NewWorkshopService constructs a WorkshopService.
func NewWorkshopService(workshops WorkshopStore, clock Clock) *WorkshopService {
	return &WorkshopService{workshops: workshops, clock: clock}
}

// Create validates the new workshop's dates, derives its initial
// state, and persists it. Returns the generated id.
func (s *WorkshopService) Create(ctx context.Context, w *model.Workshop) (string, error) {
	today := model.DateOf(s.clock.Now())

	if w.StartDate.After(w.EndDate) {
		return "", fmt.Errorf("%w: start %s is after end %s",
			model.ErrInvalidRange, w.StartDate, w.EndDate)
	}
	if w.StartDate.Before(today) || w.EndDate.Before(today) {
		return "", fmt.Errorf("%w: start and end dates must be today or later",
			model.ErrPastDate)
	}

	w.ID = uuid.New().String()
	w.CreatedDate = today
	w.Deleted = false
	w.State = model.DetermineState(w.StartDate, w.EndDate, today)
	if w.Tutors == nil {
		w.Tutors = []string{}
	}

	if err := s.workshops.Save(ctx, w); err != nil {
		return "", fmt.Errorf("save workshop: %w", err)
	}
	return w.ID, nil
}

// Edit applies a partial update. Date changes are validated against
// the workshop's current stored state; non-date fields are applied
// unconditionally. All validation happens before any mutation.
func (s *WorkshopService) Edit(ctx context.Context, id string, patch model.WorkshopPatch) error {
	w, err := s.workshops.Get(ctx, id)
	if err != nil {
		return err
	}

	today := model.DateOf(s.clock.Now())
	if err := validateDatePatch(w, patch, today); err != nil {
		return err
	}

	oldStart, oldEnd := w.StartDate, w.EndDate
	applyPatch(w, patch)

	if !w.StartDate.Equal(oldStart) || !w.EndDate.Equal(oldEnd) {
		w.State = model.DetermineState(w.StartDate, w.EndDate, today)
	}

	if err := s.workshops.Save(ctx, w); err != nil {
		return fmt.Errorf("save workshop: %w", err)
	}
	return nil
}

// validateDatePatch enforces the state-dependent date rules without
// touching the workshop.
func validateDatePatch(w *model.Workshop, patch model.WorkshopPatch, today model.Date) error {
	start, end := patch.StartDate, patch.EndDate

	switch {
	case start != nil && end != nil:
		if end.Before(*start) {
			return fmt.Errorf("%w: end %s is before start %s",
				model.ErrInvalidRange, end, start)
		}
		switch w.State {
		case model.StateOngoing:
			if !start.Equal(w.StartDate) {
				return fmt.Errorf("%w: start date cannot be modified for ongoing workshops",
					model.ErrInvariantViolation)
			}
			if end.Before(today) {
				return fmt.Errorf("%w: end date must be today or later for ongoing workshops",
					model.ErrPastDate)
			}
		case model.StateUpcoming:
			if start.Before(today) || end.Before(today) {
				return fmt.Errorf("%w: dates must be today or later for upcoming workshops",
					model.ErrPastDate)
			}
		case model.StateCompleted:
			if model.DetermineState(*start, *end, today) != model.StateCompleted {
				return fmt.Errorf("%w: completed workshops cannot be reopened",
					model.ErrIllegalTransition)
			}
		}

	case start != nil:
		if w.State == model.StateOngoing {
			return fmt.Errorf("%w: start date cannot be modified for ongoing workshops",
				model.ErrInvariantViolation)
		}
		if w.State == model.StateUpcoming && start.Before(today) {
			return fmt.Errorf("%w: start date must be today or later for upcoming workshops",
				model.ErrPastDate)
		}
		if start.After(w.EndDate) {
			return fmt.Errorf("%w: start %s is after existing end %s",
				model.ErrInvalidRange, start, w.EndDate)
		}

	case end != nil:
		if end.Before(w.StartDate) {
			return fmt.Errorf("%w: end %s is before existing start %s",
				model.ErrInvalidRange, end, w.StartDate)
		}
		if (w.State == model.StateOngoing || w.State == model.StateUpcoming) && end.Before(today) {
			return fmt.Errorf("%w: end date must be today or later", model.ErrPastDate)
		}
	}
	return nil
}

func applyPatch(w *model.Workshop, patch model.WorkshopPatch) {
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Topic != nil {
		w.Topic = *patch.Topic
	}
	if patch.Objective != nil {
		w.Objective = *patch.Objective
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.Instructions != nil {
		w.Instructions = *patch.Instructions
	}
	if patch.Tutors != nil {
		w.Tutors = *patch.Tutors
	}
	if patch.StartDate != nil {
		w.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		w.EndDate = *patch.EndDate
	}
}

// SoftDelete marks a workshop deleted without removing its record.
// Deleted workshops keep their last state and drop out of the active
// listings and reconciliation.
func (s *WorkshopService) SoftDelete(ctx context.Context, id string) error {
	w, err := s.workshops.Get(ctx, id)
	if err != nil {
		return err
	}
	if w.Deleted {
		return fmt.Errorf("%w: workshop %s", model.ErrAlreadyDeleted, id)
	}
	w.Deleted = true
	if err := s.workshops.Save(ctx, w); err != nil {
		return fmt.Errorf("save workshop: %w", err)
	}
	return nil
}

// Get returns one workshop, including soft-deleted ones.
func (s *WorkshopService) Get(ctx context.Context, id string) (*model.Workshop, error) {
	return s.workshops.Get(ctx, id)
}

// List returns all non-deleted workshops.
func (s *WorkshopService) List(ctx context.Context) ([]model.Workshop, error) {
	return s.workshops.ListActive(ctx)
}

// Upcoming lists non-deleted workshops in the UPCOMING state.
func (s *WorkshopService) Upcoming(ctx context.Context) ([]model.Workshop, error) {
	return s.workshops.ListActiveByState(ctx, model.StateUpcoming)
}

// Ongoing lists non-deleted workshops in the ONGOING state.
func (s *WorkshopService) Ongoing(ctx context.Context) ([]model.Workshop, error) {
	return s.workshops.ListActiveByState(ctx, model.StateOngoing)
}

// Completed lists non-deleted workshops in the COMPLETED state.
func (s *WorkshopService) Completed(ctx context.Context) ([]model.Workshop, error) {
	return s.workshops.ListActiveByState(ctx, model.StateCompleted)
}
