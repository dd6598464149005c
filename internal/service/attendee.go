package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/workshophq/workshop-backend/internal/model"
)

// AttendeeService manages the minimal attendee directory the engine
// needs: profiles referenced by id from registrations. Credentials are
// the identity collaborator's concern.
type AttendeeService struct {
	attendees AttendeeStore
}

// NewAttendeeService constructs an AttendeeService.
func NewAttendeeService(attendees AttendeeStore) *AttendeeService {
	return &AttendeeService{attendees: attendees}
}

// Create adds a new attendee profile. Email and phone must be unique;
// the store reports a duplicate as model.ErrConflict.
func (s *AttendeeService) Create(ctx context.Context, a *model.Attendee) (string, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(strings.ToLower(a.Email))
	a.Phone = strings.TrimSpace(a.Phone)
	if a.Name == "" || a.Email == "" || a.Phone == "" {
		return "", fmt.Errorf("%w: name, email, and phone are required", model.ErrValidation)
	}

	a.ID = uuid.New().String()
	if err := s.attendees.Insert(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// Get returns one attendee profile.
func (s *AttendeeService) Get(ctx context.Context, id string) (*model.Attendee, error) {
	return s.attendees.Get(ctx, id)
}

// List returns all attendee profiles.
func (s *AttendeeService) List(ctx context.Context) ([]model.Attendee, error) {
	return s.attendees.List(ctx)
}
