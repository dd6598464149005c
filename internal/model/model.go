// Package model defines the core domain types for the workshop
// lifecycle and registration engine.
package model

import "time"

// Workshop is a scheduled event tracked through three lifecycle states
// derived from its date range.
type Workshop struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Topic        string        `json:"topic"`
	Objective    string        `json:"objective"`
	Description  string        `json:"description"`
	Instructions string        `json:"instructions"`
	Tutors       []string      `json:"tutors"`
	StartDate    Date          `json:"start_date"`
	EndDate      Date          `json:"end_date"`
	CreatedDate  Date          `json:"created_date"`
	State        WorkshopState `json:"state"`
	Deleted      bool          `json:"-"`
}

// WorkshopPatch carries a partial workshop update. Nil fields are left
// untouched.
type WorkshopPatch struct {
	Title        *string   `json:"title"`
	Topic        *string   `json:"topic"`
	Objective    *string   `json:"objective"`
	Description  *string   `json:"description"`
	Instructions *string   `json:"instructions"`
	Tutors       *[]string `json:"tutors"`
	StartDate    *Date     `json:"start_date"`
	EndDate      *Date     `json:"end_date"`
}

// Registration links one attendee to one workshop. At most one exists
// per (attendee, workshop) pair.
type Registration struct {
	ID            string    `json:"id"`
	AttendeeID    string    `json:"attendee_id"`
	WorkshopID    string    `json:"workshop_id"`
	RegisteredAt  time.Time `json:"registered_at"`
	Attended      bool      `json:"attended"`
	FeedbackGiven bool      `json:"feedback_given"`
	Rating        *int      `json:"rating,omitempty"`
	Comment       string    `json:"comment,omitempty"`
}

// Attendee is the profile the engine references by id. Credentials
// live with the identity collaborator.
type Attendee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// FeedbackEntry is one attendee's feedback on a workshop.
type FeedbackEntry struct {
	AttendeeName string `json:"attendee_name"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

// WorkshopFeedback aggregates all feedback given for one workshop.
type WorkshopFeedback struct {
	WorkshopID     string          `json:"workshop_id"`
	Title          string          `json:"title"`
	StartDate      Date            `json:"start_date"`
	EndDate        Date            `json:"end_date"`
	AverageRating  float64         `json:"average_rating"`
	TotalFeedbacks int             `json:"total_feedbacks"`
	Feedbacks      []FeedbackEntry `json:"feedbacks"`
}

// ReconcileSummary reports the outcome of one reconciliation pass.
type ReconcileSummary struct {
	Upcoming  int `json:"upcoming"`
	Ongoing   int `json:"ongoing"`
	Completed int `json:"completed"`
	Changed   int `json:"changed"`
	Total     int `json:"total"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
