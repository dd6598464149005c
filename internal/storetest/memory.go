// Package storetest provides a mutex-guarded in-memory implementation
// of the engine's store interfaces for use in tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/workshophq/workshop-backend/internal/model"
)

// Store holds the shared in-memory state. The Workshops, Registrations,
// and Attendees views implement the corresponding service store
// interfaces over it. It is safe for concurrent use, and registration
// inserts enforce the same (attendee, workshop) uniqueness a
// relational unique constraint would.
type Store struct {
	mu            sync.Mutex
	workshops     map[string]model.Workshop
	attendees     map[string]model.Attendee
	registrations map[string]model.Registration // keyed attendeeID|workshopID
	regOrder      []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		workshops:     make(map[string]model.Workshop),
		attendees:     make(map[string]model.Attendee),
		registrations: make(map[string]model.Registration),
	}
}

// Workshops returns the WorkshopStore view.
func (s *Store) Workshops() *WorkshopStore { return &WorkshopStore{s: s} }

// Registrations returns the RegistrationStore view.
func (s *Store) Registrations() *RegistrationStore { return &RegistrationStore{s: s} }

// Attendees returns the AttendeeStore view.
func (s *Store) Attendees() *AttendeeStore { return &AttendeeStore{s: s} }

func regKey(attendeeID, workshopID string) string {
	return attendeeID + "|" + workshopID
}

// SeedWorkshop stores a workshop as-is.
func (s *Store) SeedWorkshop(w model.Workshop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workshops[w.ID] = w
}

// SeedAttendee stores an attendee as-is.
func (s *Store) SeedAttendee(a model.Attendee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendees[a.ID] = a
}

// SeedRegistration stores a registration as-is.
func (s *Store) SeedRegistration(r model.Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey(r.AttendeeID, r.WorkshopID)
	if _, ok := s.registrations[key]; !ok {
		s.regOrder = append(s.regOrder, key)
	}
	s.registrations[key] = r
}

// Workshop returns a stored workshop by id for assertions.
func (s *Store) Workshop(id string) (model.Workshop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workshops[id]
	return w, ok
}

// Registration returns a stored registration for assertions.
func (s *Store) Registration(attendeeID, workshopID string) (model.Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[regKey(attendeeID, workshopID)]
	return r, ok
}

// RegistrationCount returns the number of stored registrations.
func (s *Store) RegistrationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations)
}

// ── WorkshopStore view ───────────────────────────────────────────────

// WorkshopStore implements service.WorkshopStore.
type WorkshopStore struct {
	s *Store

	// SaveAllCalls counts batch writes, for asserting that the
	// reconciler persists staged changes in one batch.
	SaveAllCalls int
}

// Get resolves a workshop by id, soft-deleted ones included.
func (v *WorkshopStore) Get(_ context.Context, id string) (*model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	w, ok := v.s.workshops[id]
	if !ok {
		return nil, fmt.Errorf("%w: workshop %s", model.ErrNotFound, id)
	}
	cp := w
	return &cp, nil
}

// ListActive returns all non-deleted workshops.
func (v *WorkshopStore) ListActive(_ context.Context) ([]model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.Workshop
	for _, w := range v.s.workshops {
		if !w.Deleted {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListActiveByState returns non-deleted workshops in one state.
func (v *WorkshopStore) ListActiveByState(_ context.Context, state model.WorkshopState) ([]model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.Workshop
	for _, w := range v.s.workshops {
		if !w.Deleted && w.State == state {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save upserts a workshop.
func (v *WorkshopStore) Save(_ context.Context, w *model.Workshop) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.workshops[w.ID] = *w
	return nil
}

// SaveAll upserts workshops as one batch.
func (v *WorkshopStore) SaveAll(_ context.Context, ws []*model.Workshop) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.SaveAllCalls++
	for _, w := range ws {
		v.s.workshops[w.ID] = *w
	}
	return nil
}

// ── RegistrationStore view ───────────────────────────────────────────

// RegistrationStore implements service.RegistrationStore.
type RegistrationStore struct {
	s *Store
}

// Exists reports whether the pair is registered.
func (v *RegistrationStore) Exists(_ context.Context, attendeeID, workshopID string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	_, ok := v.s.registrations[regKey(attendeeID, workshopID)]
	return ok, nil
}

// Get returns the pair's registration.
func (v *RegistrationStore) Get(_ context.Context, attendeeID, workshopID string) (*model.Registration, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, ok := v.s.registrations[regKey(attendeeID, workshopID)]
	if !ok {
		return nil, fmt.Errorf("%w: registration for attendee %s and workshop %s",
			model.ErrNotFound, attendeeID, workshopID)
	}
	cp := r
	return &cp, nil
}

// Insert adds a registration, enforcing pair uniqueness atomically the
// way a relational unique constraint would.
func (v *RegistrationStore) Insert(_ context.Context, r *model.Registration) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := regKey(r.AttendeeID, r.WorkshopID)
	if _, ok := v.s.registrations[key]; ok {
		return fmt.Errorf("%w: attendee %s, workshop %s",
			model.ErrAlreadyRegistered, r.AttendeeID, r.WorkshopID)
	}
	v.s.registrations[key] = *r
	v.s.regOrder = append(v.s.regOrder, key)
	return nil
}

// Delete removes the pair's registration.
func (v *RegistrationStore) Delete(_ context.Context, attendeeID, workshopID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := regKey(attendeeID, workshopID)
	if _, ok := v.s.registrations[key]; !ok {
		return fmt.Errorf("%w: registration", model.ErrNotFound)
	}
	delete(v.s.registrations, key)
	for i, k := range v.s.regOrder {
		if k == key {
			v.s.regOrder = append(v.s.regOrder[:i], v.s.regOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Save upserts a registration.
func (v *RegistrationStore) Save(_ context.Context, r *model.Registration) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := regKey(r.AttendeeID, r.WorkshopID)
	if _, ok := v.s.registrations[key]; !ok {
		v.s.regOrder = append(v.s.regOrder, key)
	}
	v.s.registrations[key] = *r
	return nil
}

func (v *RegistrationStore) workshopsForAttendee(attendeeID string, keep func(model.Registration, model.Workshop) bool) []model.Workshop {
	var out []model.Workshop
	for _, key := range v.s.regOrder {
		r := v.s.registrations[key]
		if r.AttendeeID != attendeeID {
			continue
		}
		w, ok := v.s.workshops[r.WorkshopID]
		if ok && keep(r, w) {
			out = append(out, w)
		}
	}
	return out
}

// ListWorkshopsByAttendee returns every workshop the attendee is
// registered for.
func (v *RegistrationStore) ListWorkshopsByAttendee(_ context.Context, attendeeID string) ([]model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.workshopsForAttendee(attendeeID, func(model.Registration, model.Workshop) bool {
		return true
	}), nil
}

// ListCompletedPendingFeedback returns the attendee's completed
// workshops without feedback yet.
func (v *RegistrationStore) ListCompletedPendingFeedback(_ context.Context, attendeeID string) ([]model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.workshopsForAttendee(attendeeID, func(r model.Registration, w model.Workshop) bool {
		return w.State == model.StateCompleted && !r.FeedbackGiven
	}), nil
}

// ListAttended returns workshops with confirmed attendance.
func (v *RegistrationStore) ListAttended(_ context.Context, attendeeID string) ([]model.Workshop, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.workshopsForAttendee(attendeeID, func(r model.Registration, _ model.Workshop) bool {
		return r.Attended
	}), nil
}

// ListAttendeesForWorkshop returns the attendees registered for one
// workshop, in registration order.
func (v *RegistrationStore) ListAttendeesForWorkshop(_ context.Context, workshopID string) ([]model.Attendee, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.Attendee
	for _, key := range v.s.regOrder {
		r := v.s.registrations[key]
		if r.WorkshopID != workshopID {
			continue
		}
		if a, ok := v.s.attendees[r.AttendeeID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListFeedbackForWorkshop returns the feedback entries given for one
// workshop, in registration order.
func (v *RegistrationStore) ListFeedbackForWorkshop(_ context.Context, workshopID string) ([]model.FeedbackEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.FeedbackEntry
	for _, key := range v.s.regOrder {
		r := v.s.registrations[key]
		if r.WorkshopID != workshopID || !r.FeedbackGiven || r.Rating == nil {
			continue
		}
		name := ""
		if a, ok := v.s.attendees[r.AttendeeID]; ok {
			name = a.Name
		}
		out = append(out, model.FeedbackEntry{
			AttendeeName: name,
			Rating:       *r.Rating,
			Comment:      r.Comment,
		})
	}
	return out, nil
}

// DistinctWorkshopIDsWithFeedback returns ids of workshops with at
// least one feedback-bearing registration.
func (v *RegistrationStore) DistinctWorkshopIDsWithFeedback(_ context.Context) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, key := range v.s.regOrder {
		r := v.s.registrations[key]
		if r.FeedbackGiven && !seen[r.WorkshopID] {
			seen[r.WorkshopID] = true
			out = append(out, r.WorkshopID)
		}
	}
	return out, nil
}

// AverageRating returns the arithmetic mean of ratings among
// feedback-bearing registrations for one workshop.
func (v *RegistrationStore) AverageRating(_ context.Context, workshopID string) (float64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sum, n := 0, 0
	for _, r := range v.s.registrations {
		if r.WorkshopID == workshopID && r.FeedbackGiven && r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// ── AttendeeStore view ───────────────────────────────────────────────

// AttendeeStore implements service.AttendeeStore.
type AttendeeStore struct {
	s *Store
}

// Get resolves an attendee profile by id.
func (v *AttendeeStore) Get(_ context.Context, id string) (*model.Attendee, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.attendees[id]
	if !ok {
		return nil, fmt.Errorf("%w: attendee %s", model.ErrNotFound, id)
	}
	cp := a
	return &cp, nil
}

// Insert adds a profile, rejecting duplicate email or phone.
func (v *AttendeeStore) Insert(_ context.Context, a *model.Attendee) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.attendees {
		if existing.Email == a.Email || existing.Phone == a.Phone {
			return fmt.Errorf("%w: email or phone already taken", model.ErrConflict)
		}
	}
	v.s.attendees[a.ID] = *a
	return nil
}

// List returns all profiles.
func (v *AttendeeStore) List(_ context.Context) ([]model.Attendee, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.Attendee, 0, len(v.s.attendees))
	for _, a := range v.s.attendees {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
