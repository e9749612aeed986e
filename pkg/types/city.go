package types

import (
	"fmt"
	"strconv"
	"strings"
)

// City is a place visited on one or more trips. Coordinates are kept as the
// decimal text GeoNames returns.
type City struct {
	ID            int64  `json:"id"`
	GeonameID     int64  `json:"geonameid"`
	Name          string `json:"name"`
	AdminDivision string `json:"admin_division,omitempty"` // Empty is stored as NULL.
	Country       string `json:"country"`                  // ISO 3166-1 alpha-2 code.
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
}

// DisplayName joins name, admin division, and country for listings.
func (c City) DisplayName() string {
	parts := []string{c.Name}
	if c.AdminDivision != "" {
		parts = append(parts, c.AdminDivision)
	}
	parts = append(parts, c.Country)
	return strings.Join(parts, ", ")
}

// Coordinates parses the latitude and longitude.
func (c City) Coordinates() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(c.Latitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude %q: %w", c.Latitude, err)
	}
	lon, err = strconv.ParseFloat(c.Longitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude %q: %w", c.Longitude, err)
	}
	return lat, lon, nil
}

// TripCity is a visit to a city on a trip, with an optional note.
type TripCity struct {
	City  City   `json:"city"`
	Notes string `json:"notes,omitempty"`
}
