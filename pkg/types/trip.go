package types

import "regexp"

// isoDate matches the two date shapes a trip accepts.
var isoDate = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2})?$`)

// Trip is a journey with a date range. Dates are ISO text (YYYY-MM or
// YYYY-MM-DD) so lexical comparison orders them.
type Trip struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Notes     string `json:"notes,omitempty"` // Empty is stored as NULL.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Validate checks the trip name and date range.
func (t Trip) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if !isoDate.MatchString(t.StartDate) || !isoDate.MatchString(t.EndDate) {
		return ErrInvalidDateFormat
	}
	if t.EndDate < t.StartDate {
		return ErrInvalidTripDates
	}
	return nil
}

// EndYear returns the four-digit year of the end date.
func (t Trip) EndYear() string {
	if len(t.EndDate) < 4 {
		return ""
	}
	return t.EndDate[:4]
}
