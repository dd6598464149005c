package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workshophq/workshop-backend/internal/model"
)

// pgUniqueViolation is the PostgreSQL error code for a violated UNIQUE
// constraint.
const pgUniqueViolation = "23505"

// RegistrationRepository handles persistence for registrations and the
// feedback recorded on them.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Exists reports whether the attendee is registered for the workshop.
func (r *RegistrationRepository) Exists(ctx context.Context, attendeeID, workshopID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM registrations WHERE attendee_id = $1 AND workshop_id = $2
		 )`,
		attendeeID, workshopID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// Get returns the registration for one (attendee, workshop) pair or
// model.ErrNotFound.
func (r *RegistrationRepository) Get(ctx context.Context, attendeeID, workshopID string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.QueryRow(ctx,
		`SELECT id, attendee_id, workshop_id, registered_at, attended,
		        feedback_given, rating, COALESCE(comment, '')
		 FROM registrations
		 WHERE attendee_id = $1 AND workshop_id = $2`,
		attendeeID, workshopID,
	).Scan(&reg.ID, &reg.AttendeeID, &reg.WorkshopID, &reg.RegisteredAt,
		&reg.Attended, &reg.FeedbackGiven, &reg.Rating, &reg.Comment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// Insert creates a registration. The UNIQUE (attendee_id, workshop_id)
// constraint is the arbiter under concurrency: the losing insert maps
// to model.ErrAlreadyRegistered.
func (r *RegistrationRepository) Insert(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (id, attendee_id, workshop_id, registered_at,
		                            attended, feedback_given, rating, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reg.ID, reg.AttendeeID, reg.WorkshopID, reg.RegisteredAt,
		reg.Attended, reg.FeedbackGiven, reg.Rating, reg.Comment,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// Delete removes the registration for one pair, or returns
// model.ErrNotFound when none exists.
func (r *RegistrationRepository) Delete(ctx context.Context, attendeeID, workshopID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE attendee_id = $1 AND workshop_id = $2`,
		attendeeID, workshopID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Save updates the mutable fields of an existing registration.
func (r *RegistrationRepository) Save(ctx context.Context, reg *model.Registration) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET attended = $2, feedback_given = $3, rating = $4, comment = $5
		 WHERE id = $1`,
		reg.ID, reg.Attended, reg.FeedbackGiven, reg.Rating, reg.Comment,
	)
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListWorkshopsByAttendee returns every non-deleted workshop the
// attendee is registered for.
func (r *RegistrationRepository) ListWorkshopsByAttendee(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+joinedWorkshopColumns+`
		 FROM registrations r
		 JOIN workshops w ON w.id = r.workshop_id
		 WHERE r.attendee_id = $1 AND NOT w.deleted
		 ORDER BY w.start_date ASC, w.id ASC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registered workshops: %w", err)
	}
	return collectWorkshops(rows)
}

// ListCompletedPendingFeedback returns the attendee's completed
// workshops that still await their feedback.
func (r *RegistrationRepository) ListCompletedPendingFeedback(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+joinedWorkshopColumns+`
		 FROM registrations r
		 JOIN workshops w ON w.id = r.workshop_id
		 WHERE r.attendee_id = $1
		   AND NOT w.deleted
		   AND w.state = $2
		   AND NOT r.feedback_given
		 ORDER BY w.start_date ASC, w.id ASC`,
		attendeeID, string(model.StateCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending feedback: %w", err)
	}
	return collectWorkshops(rows)
}

// ListAttended returns the workshops the attendee is recorded as
// having attended.
func (r *RegistrationRepository) ListAttended(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+joinedWorkshopColumns+`
		 FROM registrations r
		 JOIN workshops w ON w.id = r.workshop_id
		 WHERE r.attendee_id = $1 AND NOT w.deleted AND r.attended
		 ORDER BY w.start_date ASC, w.id ASC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attended workshops: %w", err)
	}
	return collectWorkshops(rows)
}

// ListAttendeesForWorkshop returns every attendee registered for the
// workshop, ordered by registration time.
func (r *RegistrationRepository) ListAttendeesForWorkshop(ctx context.Context, workshopID string) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.name, a.email, a.phone
		 FROM registrations r
		 JOIN attendees a ON a.id = r.attendee_id
		 WHERE r.workshop_id = $1
		 ORDER BY r.registered_at ASC`,
		workshopID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workshop attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// ListFeedbackForWorkshop returns all submitted feedback for the
// workshop with the author's name.
func (r *RegistrationRepository) ListFeedbackForWorkshop(ctx context.Context, workshopID string) ([]model.FeedbackEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.name, r.rating, COALESCE(r.comment, '')
		 FROM registrations r
		 JOIN attendees a ON a.id = r.attendee_id
		 WHERE r.workshop_id = $1 AND r.feedback_given
		 ORDER BY r.registered_at ASC`,
		workshopID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workshop feedback: %w", err)
	}
	defer rows.Close()

	var entries []model.FeedbackEntry
	for rows.Next() {
		var e model.FeedbackEntry
		if err := rows.Scan(&e.AttendeeName, &e.Rating, &e.Comment); err != nil {
			return nil, fmt.Errorf("scan feedback entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DistinctWorkshopIDsWithFeedback returns the ids of all workshops
// with at least one submitted feedback.
func (r *RegistrationRepository) DistinctWorkshopIDsWithFeedback(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT workshop_id FROM registrations WHERE feedback_given`,
	)
	if err != nil {
		return nil, fmt.Errorf("list workshops with feedback: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workshop id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AverageRating returns the mean rating across all submitted feedback
// for the workshop, or zero when there is none.
func (r *RegistrationRepository) AverageRating(ctx context.Context, workshopID string) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0)
		 FROM registrations
		 WHERE workshop_id = $1 AND feedback_given`,
		workshopID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}
