// Package geojson exports visited cities as a GeoJSON FeatureCollection for
// map tools: one point per city with its visit count, the year of the last
// visit, and an optional marker colour chosen by who has been there.
package geojson

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Querier runs read queries. *sqlite.Store satisfies it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// FeatureCollection is the GeoJSON document root.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one visited city.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON point; Coordinates are longitude then latitude.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Properties are the per-city attributes shown by map tools.
type Properties struct {
	Name        string `json:"name"`
	VisitCount  int    `json:"visit count"`
	LastVisit   int    `json:"last visit"`
	MarkerColor string `json:"marker-color,omitempty"`
}

const citiesQuery = `
SELECT c.id, c.name, c.latitude, c.longitude,
       COUNT(tc.trip_id) AS visit_count,
       MAX(SUBSTR(t.end_date, 1, 4)) AS last_visit_year
FROM cities c
JOIN trip_cities tc ON c.id = tc.city_id
JOIN trips t ON tc.trip_id = t.id
GROUP BY c.id
ORDER BY c.name`

const visitorsQuery = `
SELECT DISTINCT p.name
FROM people p
JOIN trip_participants tp ON p.id = tp.person_id
JOIN trip_cities tc ON tp.trip_id = tc.trip_id
WHERE tc.city_id = ?
ORDER BY p.name`

type cityRow struct {
	id        int64
	name      string
	lat, lon  string
	visits    int
	lastVisit string
}

// Generate builds the FeatureCollection for every visited city, ordered by
// city name. colours maps a hex colour without '#' to the exact set of
// travellers whose cities get that marker.
func Generate(ctx context.Context, q Querier, colours map[string][]string) (*FeatureCollection, error) {
	cities, err := visitedCities(ctx, q)
	if err != nil {
		return nil, err
	}

	fc := &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, c := range cities {
		lat, err := strconv.ParseFloat(c.lat, 64)
		if err != nil {
			return nil, fmt.Errorf("city %q latitude: %w", c.name, err)
		}
		lon, err := strconv.ParseFloat(c.lon, 64)
		if err != nil {
			return nil, fmt.Errorf("city %q longitude: %w", c.name, err)
		}
		year, err := strconv.Atoi(c.lastVisit)
		if err != nil {
			return nil, fmt.Errorf("city %q last visit: %w", c.name, err)
		}

		props := Properties{Name: c.name, VisitCount: c.visits, LastVisit: year}
		if len(colours) > 0 {
			visitors, err := cityVisitors(ctx, q, c.id)
			if err != nil {
				return nil, err
			}
			props.MarkerColor = markerColor(visitors, colours)
		}

		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
			Properties: props,
		})
	}
	return fc, nil
}

// Export writes the FeatureCollection to path as indented JSON. The file is
// replaced atomically.
func Export(ctx context.Context, q Querier, path string, colours map[string][]string) error {
	fc, err := Generate(ctx, q, colours)
	if err != nil {
		return fmt.Errorf("generating geojson: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing geojson: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming geojson into place: %w", err)
	}
	return nil
}

// visitedCities reads the aggregate rows. Rows are drained and closed
// before the caller issues the per-city visitor queries.
func visitedCities(ctx context.Context, q Querier) ([]cityRow, error) {
	rows, err := q.QueryContext(ctx, citiesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying visited cities: %w", err)
	}
	defer rows.Close()

	var out []cityRow
	for rows.Next() {
		var c cityRow
		if err := rows.Scan(&c.id, &c.name, &c.lat, &c.lon, &c.visits, &c.lastVisit); err != nil {
			return nil, fmt.Errorf("scanning visited city: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func cityVisitors(ctx context.Context, q Querier, cityID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, visitorsQuery, cityID)
	if err != nil {
		return nil, fmt.Errorf("querying visitors of city %d: %w", cityID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// markerColor returns "#<hex>" for the first colour, in sorted key order,
// whose traveller set equals visitors. It returns "" when visitors is empty
// or nothing matches.
func markerColor(visitors []string, colours map[string][]string) string {
	if len(visitors) == 0 {
		return ""
	}
	want := toSet(visitors)

	keys := make([]string, 0, len(colours))
	for k := range colours {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if sameSet(want, toSet(colours[k])) {
			return "#" + k
		}
	}
	return ""
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
