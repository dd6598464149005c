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

// AttendeeRepository handles persistence for attendee profiles.
type AttendeeRepository struct {
	db *pgxpool.Pool
}

// NewAttendeeRepository constructs an AttendeeRepository.
func NewAttendeeRepository(db *pgxpool.Pool) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// Get returns a single attendee or model.ErrNotFound.
func (r *AttendeeRepository) Get(ctx context.Context, id string) (*model.Attendee, error) {
	var a model.Attendee
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone FROM attendees WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return &a, nil
}

// Insert creates an attendee. Duplicate email or phone maps to
// model.ErrConflict via the UNIQUE constraints.
func (r *AttendeeRepository) Insert(ctx context.Context, a *model.Attendee) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO attendees (id, name, email, phone) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Name, a.Email, a.Phone,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrConflict
		}
		return fmt.Errorf("insert attendee: %w", err)
	}
	return nil
}

// List returns all attendees ordered by name.
func (r *AttendeeRepository) List(ctx context.Context) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, phone FROM attendees ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
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
