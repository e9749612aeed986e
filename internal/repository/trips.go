package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// AddTrip validates t, inserts it, and returns it with its assigned ID.
func (r *Repository) AddTrip(ctx context.Context, t types.Trip) (types.Trip, error) {
	if err := t.Validate(); err != nil {
		return types.Trip{}, err
	}
	insert := sq.Insert("trips").
		Columns("name", "notes", "start_date", "end_date").
		Values(t.Name, nullable(t.Notes), t.StartDate, t.EndDate)
	_, res, err := r.write(ctx, insert)
	if err != nil {
		return types.Trip{}, fmt.Errorf("adding trip %q: %w", t.Name, err)
	}
	if t.ID, err = lastInsertID(res); err != nil {
		return types.Trip{}, err
	}
	return t, nil
}

// GetTrip returns the trip with id.
func (r *Repository) GetTrip(ctx context.Context, id int64) (types.Trip, error) {
	return selectOne(ctx, r, sq.Select(tripColumns...).From("trips").Where(sq.Eq{"id": id}), scanTrip)
}

// UpdateTrip validates t and replaces the stored trip with the same ID.
func (r *Repository) UpdateTrip(ctx context.Context, t types.Trip) error {
	if err := t.Validate(); err != nil {
		return err
	}
	update := sq.Update("trips").
		Set("name", t.Name).
		Set("notes", nullable(t.Notes)).
		Set("start_date", t.StartDate).
		Set("end_date", t.EndDate).
		Where(sq.Eq{"id": t.ID})
	n, _, err := r.write(ctx, update)
	if err != nil {
		return fmt.Errorf("updating trip %d: %w", t.ID, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteTrip removes the trip, its participants and visits, and any city
// no other trip visits.
func (r *Repository) DeleteTrip(ctx context.Context, id int64) error {
	n, err := r.writeTx(ctx, func(tx *sql.Tx) (int64, error) {
		res, err := execIn(ctx, tx, sq.Delete("trips").Where(sq.Eq{"id": id}))
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return fmt.Errorf("deleting trip %d: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ListTrips returns every trip, most recent start first.
func (r *Repository) ListTrips(ctx context.Context) ([]types.Trip, error) {
	return selectAll(ctx, r, sq.Select(tripColumns...).From("trips").OrderBy("start_date DESC", "id"), scanTrip)
}
