package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/workshophq/workshop-backend/internal/model"
)

// FeedbackService enforces one-feedback-per-registration and
// aggregates per-workshop statistics. Submitting feedback is also the
// attendance-confirmation event.
type FeedbackService struct {
	registrations RegistrationStore
	workshops     WorkshopStore
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(registrations RegistrationStore, workshops WorkshopStore) *FeedbackService {
	return &FeedbackService{registrations: registrations, workshops: workshops}
}

// Submit records feedback on a completed workshop's registration and
// marks the attendee as having attended.
func (s *FeedbackService) Submit(ctx context.Context, attendeeID, workshopID string, rating *int, comment string) error {
	reg, err := s.registrations.Get(ctx, attendeeID, workshopID)
	if err != nil {
		return err
	}
	if reg.FeedbackGiven {
		return fmt.Errorf("%w: attendee %s, workshop %s",
			model.ErrAlreadySubmitted, attendeeID, workshopID)
	}

	w, err := s.workshops.Get(ctx, reg.WorkshopID)
	if err != nil {
		return err
	}
	if w.State != model.StateCompleted {
		return fmt.Errorf("%w: cannot submit feedback until the workshop is completed",
			model.ErrIllegalState)
	}

	if rating == nil {
		return fmt.Errorf("%w: rating is required", model.ErrInvalidRating)
	}
	if *rating < 0 || *rating > 5 {
		return fmt.Errorf("%w: got %d", model.ErrInvalidRating, *rating)
	}

	reg.Rating = rating
	reg.Comment = comment
	reg.FeedbackGiven = true
	reg.Attended = true
	if err := s.registrations.Save(ctx, reg); err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

// AggregateForWorkshop returns the workshop's mean rating, feedback
// count, and the individual feedback entries. A workshop with no
// feedback aggregates to 0.0 and an empty list.
func (s *FeedbackService) AggregateForWorkshop(ctx context.Context, workshopID string) (*model.WorkshopFeedback, error) {
	w, err := s.workshops.Get(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	agg := &model.WorkshopFeedback{
		WorkshopID: w.ID,
		Title:      w.Title,
		StartDate:  w.StartDate,
		EndDate:    w.EndDate,
		Feedbacks:  []model.FeedbackEntry{},
	}

	entries, err := s.registrations.ListFeedbackForWorkshop(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if len(entries) == 0 {
		return agg, nil
	}

	avg, err := s.registrations.AverageRating(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	agg.AverageRating = avg
	agg.TotalFeedbacks = len(entries)
	agg.Feedbacks = entries
	return agg, nil
}

// AggregateAll returns one aggregate per workshop that has at least
// one feedback-bearing registration.
func (s *FeedbackService) AggregateAll(ctx context.Context) ([]model.WorkshopFeedback, error) {
	ids, err := s.registrations.DistinctWorkshopIDsWithFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workshops with feedback: %w", err)
	}

	out := make([]model.WorkshopFeedback, 0, len(ids))
	for _, id := range ids {
		agg, err := s.AggregateForWorkshop(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *agg)
	}
	return out, nil
}
