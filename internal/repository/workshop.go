// Package repository implements all database queries for the workshop
// engine. It uses pgx directly (no ORM) for transparency and
// performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workshophq/workshop-backend/internal/model"
)

const workshopColumns = `id, title, topic, objective, description, instructions,
	 tutors, start_date, end_date, created_date, state, deleted`

// joinedWorkshopColumns is the same column list qualified for queries
// that join workshops as w.
const joinedWorkshopColumns = `w.id, w.title, w.topic, w.objective, w.description, w.instructions,
	 w.tutors, w.start_date, w.end_date, w.created_date, w.state, w.deleted`

// WorkshopRepository handles persistence for workshops.
type WorkshopRepository struct {
	db *pgxpool.Pool
}

// NewWorkshopRepository constructs a WorkshopRepository.
func NewWorkshopRepository(db *pgxpool.Pool) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkshop(row rowScanner) (model.Workshop, error) {
	var (
		w          model.Workshop
		start, end time.Time
		created    time.Time
		state      string
	)
	err := row.Scan(
		&w.ID, &w.Title, &w.Topic, &w.Objective, &w.Description, &w.Instructions,
		&w.Tutors, &start, &end, &created, &state, &w.Deleted,
	)
	if err != nil {
		return model.Workshop{}, err
	}
	w.StartDate = model.DateOf(start)
	w.EndDate = model.DateOf(end)
	w.CreatedDate = model.DateOf(created)
	w.State = model.WorkshopState(state)
	return w, nil
}

func collectWorkshops(rows pgx.Rows) ([]model.Workshop, error) {
	defer rows.Close()

	var workshops []model.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workshop: %w", err)
		}
		workshops = append(workshops, w)
	}
	return workshops, rows.Err()
}

// Get returns a single workshop, soft-deleted included, or
// model.ErrNotFound.
func (r *WorkshopRepository) Get(ctx context.Context, id string) (*model.Workshop, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+workshopColumns+` FROM workshops WHERE id = $1`,
		id,
	)
	w, err := scanWorkshop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	return &w, nil
}

// ListActive returns all non-deleted workshops ordered by start date.
func (r *WorkshopRepository) ListActive(ctx context.Context) ([]model.Workshop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+workshopColumns+`
		 FROM workshops
		 WHERE NOT deleted
		 ORDER BY start_date ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	return collectWorkshops(rows)
}

// ListActiveByState returns all non-deleted workshops in one lifecycle
// state, ordered by start date.
func (r *WorkshopRepository) ListActiveByState(ctx context.Context, state model.WorkshopState) ([]model.Workshop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+workshopColumns+`
		 FROM workshops
		 WHERE NOT deleted AND state = $1
		 ORDER BY start_date ASC, id ASC`,
		string(state),
	)
	if err != nil {
		return nil, fmt.Errorf("list workshops by state: %w", err)
	}
	return collectWorkshops(rows)
}

const upsertWorkshopSQL = `
	INSERT INTO workshops (id, title, topic, objective, description, instructions,
	                       tutors, start_date, end_date, created_date, state, deleted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		title        = EXCLUDED.title,
		topic        = EXCLUDED.topic,
		objective    = EXCLUDED.objective,
		description  = EXCLUDED.description,
		instructions = EXCLUDED.instructions,
		tutors       = EXCLUDED.tutors,
		start_date   = EXCLUDED.start_date,
		end_date     = EXCLUDED.end_date,
		state        = EXCLUDED.state,
		deleted      = EXCLUDED.deleted`

func workshopArgs(w *model.Workshop) []any {
	// A nil slice would encode as SQL NULL and trip the NOT NULL
	// constraint on tutors.
	tutors := w.Tutors
	if tutors == nil {
		tutors = []string{}
	}
	return []any{
		w.ID, w.Title, w.Topic, w.Objective, w.Description, w.Instructions,
		tutors, w.StartDate.Time(), w.EndDate.Time(), w.CreatedDate.Time(),
		string(w.State), w.Deleted,
	}
}

// Save writes one workshop, inserting or overwriting by id.
func (r *WorkshopRepository) Save(ctx context.Context, w *model.Workshop) error {
	if _, err := r.db.Exec(ctx, upsertWorkshopSQL, workshopArgs(w)...); err != nil {
		return fmt.Errorf("save workshop: %w", err)
	}
	return nil
}

// SaveAll writes a set of workshops in one round trip. The reconciler
// uses it to persist a whole pass atomically.
func (r *WorkshopRepository) SaveAll(ctx context.Context, ws []*model.Workshop) error {
	if len(ws) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, w := range ws {
		batch.Queue(upsertWorkshopSQL, workshopArgs(w)...)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range ws {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save workshop batch: %w", err)
		}
	}
	return results.Close()
}
