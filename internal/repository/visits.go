package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// AddTripParticipant records that the person went on the trip. Adding an
// existing participant is a no-op.
func (r *Repository) AddTripParticipant(ctx context.Context, tripID, personID int64) error {
	insert := sq.Insert("trip_participants").Options("OR IGNORE").
		Columns("trip_id", "person_id").
		Values(tripID, personID)
	if _, _, err := r.write(ctx, insert); err != nil {
		return fmt.Errorf("adding person %d to trip %d: %w", personID, tripID, err)
	}
	return nil
}

// RemoveTripParticipant removes the person from the trip.
func (r *Repository) RemoveTripParticipant(ctx context.Context, tripID, personID int64) error {
	del := sq.Delete("trip_participants").Where(sq.Eq{"trip_id": tripID, "person_id": personID})
	if _, _, err := r.write(ctx, del); err != nil {
		return fmt.Errorf("removing person %d from trip %d: %w", personID, tripID, err)
	}
	return nil
}

// TripParticipants returns the people on a trip, ordered by name.
func (r *Repository) TripParticipants(ctx context.Context, tripID int64) ([]types.Person, error) {
	b := sq.Select(qualify("p", personColumns)...).
		From("people p").
		Join("trip_participants tp ON p.id = tp.person_id").
		Where(sq.Eq{"tp.trip_id": tripID}).
		OrderBy("p.name")
	return selectAll(ctx, r, b, scanPerson)
}

// PersonTrips returns the trips a person went on, most recent first.
func (r *Repository) PersonTrips(ctx context.Context, personID int64) ([]types.Trip, error) {
	b := sq.Select(qualify("t", tripColumns)...).
		From("trips t").
		Join("trip_participants tp ON t.id = tp.trip_id").
		Where(sq.Eq{"tp.person_id": personID}).
		OrderBy("t.start_date DESC", "t.id")
	return selectAll(ctx, r, b, scanTrip)
}

// AddTripCity records a visit to the city on the trip with an optional
// note. Adding an existing visit is a no-op and keeps its note.
func (r *Repository) AddTripCity(ctx context.Context, tripID, cityID int64, notes string) error {
	insert := sq.Insert("trip_cities").Options("OR IGNORE").
		Columns("trip_id", "city_id", "notes").
		Values(tripID, cityID, nullable(notes))
	if _, _, err := r.write(ctx, insert); err != nil {
		return fmt.Errorf("adding city %d to trip %d: %w", cityID, tripID, err)
	}
	return nil
}

// RemoveTripCity removes the visit, then any city no trip visits.
func (r *Repository) RemoveTripCity(ctx context.Context, tripID, cityID int64) error {
	_, err := r.writeTx(ctx, func(tx *sql.Tx) (int64, error) {
		res, err := execIn(ctx, tx, sq.Delete("trip_cities").Where(sq.Eq{"trip_id": tripID, "city_id": cityID}))
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return fmt.Errorf("removing city %d from trip %d: %w", cityID, tripID, err)
	}
	return nil
}

// UpdateTripCityNotes replaces the note on a visit. An empty note clears it.
func (r *Repository) UpdateTripCityNotes(ctx context.Context, tripID, cityID int64, notes string) error {
	update := sq.Update("trip_cities").
		Set("notes", nullable(notes)).
		Where(sq.Eq{"trip_id": tripID, "city_id": cityID})
	n, _, err := r.write(ctx, update)
	if err != nil {
		return fmt.Errorf("updating notes for city %d on trip %d: %w", cityID, tripID, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// TripCities returns the cities visited on a trip with their notes,
// ordered by city name.
func (r *Repository) TripCities(ctx context.Context, tripID int64) ([]types.TripCity, error) {
	b := sq.Select(append(qualify("c", cityColumns), "tc.notes")...).
		From("cities c").
		Join("trip_cities tc ON c.id = tc.city_id").
		Where(sq.Eq{"tc.trip_id": tripID}).
		OrderBy("c.name")
	return selectAll(ctx, r, b, func(s scanner) (types.TripCity, error) {
		var notes sql.NullString
		c, err := scanCity(s, &notes)
		return types.TripCity{City: c, Notes: notes.String}, err
	})
}

// CityTrips returns the trips that visited a city, most recent first.
func (r *Repository) CityTrips(ctx context.Context, cityID int64) ([]types.Trip, error) {
	b := sq.Select(qualify("t", tripColumns)...).
		From("trips t").
		Join("trip_cities tc ON t.id = tc.trip_id").
		Where(sq.Eq{"tc.city_id": cityID}).
		OrderBy("t.start_date DESC", "t.id")
	return selectAll(ctx, r, b, scanTrip)
}

// PersonCities returns every city a person visited on any trip, ordered
// by name.
func (r *Repository) PersonCities(ctx context.Context, personID int64) ([]types.City, error) {
	b := sq.Select(qualify("c", cityColumns)...).
		Distinct().
		From("cities c").
		Join("trip_cities tc ON c.id = tc.city_id").
		Join("trip_participants tp ON tc.trip_id = tp.trip_id").
		Where(sq.Eq{"tp.person_id": personID}).
		OrderBy("c.name")
	return selectAll(ctx, r, b, scanCityRow)
}

// VisitedCities returns every city visited on any trip, most recently
// visited first. country, when non-empty, restricts the result to one ISO
// country code, compared case-insensitively.
func (r *Repository) VisitedCities(ctx context.Context, country string) ([]types.City, error) {
	b := sq.Select(qualify("c", cityColumns)...).
		Column("MAX(t.start_date) AS last_visit").
		From("cities c").
		Join("trip_cities tc ON c.id = tc.city_id").
		Join("trips t ON t.id = tc.trip_id").
		GroupBy("c.id").
		OrderBy("last_visit DESC", "c.name")
	if country != "" {
		b = b.Where("UPPER(c.country) = UPPER(?)", country)
	}
	return selectAll(ctx, r, b, func(s scanner) (types.City, error) {
		var lastVisit string
		return scanCity(s, &lastVisit)
	})
}
