package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// AddCity inserts c and returns it with its assigned ID.
func (r *Repository) AddCity(ctx context.Context, c types.City) (types.City, error) {
	if c.Name == "" {
		return types.City{}, types.ErrInvalidName
	}
	insert := sq.Insert("cities").
		Columns("geonameid", "name", "admin_division", "country", "latitude", "longitude").
		Values(c.GeonameID, c.Name, nullable(c.AdminDivision), c.Country, c.Latitude, c.Longitude)
	_, res, err := r.write(ctx, insert)
	if err != nil {
		return types.City{}, fmt.Errorf("adding city %q: %w", c.Name, err)
	}
	if c.ID, err = lastInsertID(res); err != nil {
		return types.City{}, err
	}
	return c, nil
}

// GetCity returns the city with id.
func (r *Repository) GetCity(ctx context.Context, id int64) (types.City, error) {
	return selectOne(ctx, r, sq.Select(cityColumns...).From("cities").Where(sq.Eq{"id": id}), scanCityRow)
}

// GetCityByGeonameID returns the city with the GeoNames identifier.
func (r *Repository) GetCityByGeonameID(ctx context.Context, geonameID int64) (types.City, error) {
	return selectOne(ctx, r, sq.Select(cityColumns...).From("cities").Where(sq.Eq{"geonameid": geonameID}), scanCityRow)
}

// GetOrCreateCity returns the stored city with c's GeoNames identifier,
// inserting c when there is none.
func (r *Repository) GetOrCreateCity(ctx context.Context, c types.City) (types.City, error) {
	existing, err := r.GetCityByGeonameID(ctx, c.GeonameID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return types.City{}, err
	}
	return r.AddCity(ctx, c)
}

// ListCities returns every stored city, ordered by name.
func (r *Repository) ListCities(ctx context.Context) ([]types.City, error) {
	return selectAll(ctx, r, sq.Select(cityColumns...).From("cities").OrderBy("name"), scanCityRow)
}

func scanCityRow(s scanner) (types.City, error) {
	return scanCity(s)
}
