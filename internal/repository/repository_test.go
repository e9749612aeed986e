package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

func newRepo(t *testing.T) (*Repository, *sqlite.Store) {
	t.Helper()
	s := sqlite.New(filepath.Join(t.TempDir(), "travelogue.sqlite3"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitializeDefaultSchema(context.Background()))
	return New(s), s
}

var (
	paris  = types.City{GeonameID: 2988507, Name: "Paris", AdminDivision: "Île-de-France", Country: "FR", Latitude: "48.8566", Longitude: "2.3522"}
	london = types.City{GeonameID: 2643743, Name: "London", AdminDivision: "England", Country: "GB", Latitude: "51.5074", Longitude: "-0.1278"}
	tokyo  = types.City{GeonameID: 1850144, Name: "Tokyo", Country: "JP", Latitude: "35.6762", Longitude: "139.6503"}
)

func TestPeople(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	assert.False(t, store.WasModified())

	grace, err := repo.AddPerson(ctx, types.Person{Name: "Grace"})
	require.NoError(t, err)
	assert.NotZero(t, grace.ID)
	assert.True(t, store.WasModified(), "insert marks the store modified")

	ada, err := repo.AddPerson(ctx, types.Person{Name: "Ada"})
	require.NoError(t, err)

	got, err := repo.GetPerson(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, grace, got)

	byName, err := repo.GetPersonByName(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byName.ID)

	people, err := repo.ListPeople(ctx)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Ada", people[0].Name)

	ada.Name = "Ada Lovelace"
	require.NoError(t, repo.UpdatePerson(ctx, ada))
	got, err = repo.GetPerson(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)

	require.NoError(t, repo.DeletePerson(ctx, ada.ID))
	_, err = repo.GetPerson(ctx, ada.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPeople_Errors(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_, err := repo.AddPerson(ctx, types.Person{})
	assert.ErrorIs(t, err, types.ErrInvalidName)

	_, err = repo.GetPersonByName(ctx, "Nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, repo.UpdatePerson(ctx, types.Person{ID: 99, Name: "X"}), types.ErrNotFound)
	assert.ErrorIs(t, repo.DeletePerson(ctx, 99), types.ErrNotFound)
	assert.False(t, store.WasModified(), "writes that change nothing leave the flag alone")

	_, err = repo.AddPerson(ctx, types.Person{Name: "Ada"})
	require.NoError(t, err)
	_, err = repo.AddPerson(ctx, types.Person{Name: "Ada"})
	assert.Error(t, err, "names are unique")
}

func TestTrips(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	spring, err := repo.AddTrip(ctx, types.Trip{Name: "Spring", StartDate: "2023-04-01", EndDate: "2023-04-10"})
	require.NoError(t, err)
	autumn, err := repo.AddTrip(ctx, types.Trip{Name: "Autumn", Notes: "rainy", StartDate: "2024-10", EndDate: "2024-11"})
	require.NoError(t, err)

	trips, err := repo.ListTrips(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, autumn.ID, trips[0].ID, "most recent start first")
	assert.Equal(t, "rainy", trips[0].Notes)
	assert.Empty(t, trips[1].Notes)

	spring.Notes = "blossom"
	require.NoError(t, repo.UpdateTrip(ctx, spring))
	got, err := repo.GetTrip(ctx, spring.ID)
	require.NoError(t, err)
	assert.Equal(t, "blossom", got.Notes)

	bad := spring
	bad.EndDate = "2022-01-01"
	assert.ErrorIs(t, repo.UpdateTrip(ctx, bad), types.ErrInvalidTripDates)

	require.NoError(t, repo.DeleteTrip(ctx, spring.ID))
	_, err = repo.GetTrip(ctx, spring.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTrip(ctx, spring.ID), types.ErrNotFound)
}

func TestAddTrip_Validation(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	tests := []struct {
		name string
		trip types.Trip
		want error
	}{
		{name: "missing name", trip: types.Trip{StartDate: "2024-01", EndDate: "2024-02"}, want: types.ErrInvalidName},
		{name: "bad date", trip: types.Trip{Name: "x", StartDate: "Jan 2024", EndDate: "2024-02"}, want: types.ErrInvalidDateFormat},
		{name: "end before start", trip: types.Trip{Name: "x", StartDate: "2024-03-01", EndDate: "2024-02-01"}, want: types.ErrInvalidTripDates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.AddTrip(ctx, tt.trip)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.False(t, store.WasModified())
}

func TestCities(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	p, err := repo.AddCity(ctx, paris)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	again, err := repo.GetOrCreateCity(ctx, paris)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID, "existing geonameid is reused")

	tk, err := repo.GetOrCreateCity(ctx, tokyo)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, tk.ID)

	got, err := repo.GetCity(ctx, tk.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AdminDivision, "NULL admin division reads as empty")

	byGeo, err := repo.GetCityByGeonameID(ctx, paris.GeonameID)
	require.NoError(t, err)
	assert.Equal(t, "Île-de-France", byGeo.AdminDivision)

	cities, err := repo.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Paris", cities[0].Name)
}

// seedVisits builds two trips: Ada and Grace to Paris and London in 2023,
// Ada alone to Paris and Tokyo in 2024.
func seedVisits(t *testing.T, repo *Repository) (ada, grace types.Person, t2023, t2024 types.Trip, cities map[string]types.City) {
	t.Helper()
	ctx := context.Background()
	var err error

	ada, err = repo.AddPerson(ctx, types.Person{Name: "Ada"})
	require.NoError(t, err)
	grace, err = repo.AddPerson(ctx, types.Person{Name: "Grace"})
	require.NoError(t, err)

	cities = map[string]types.City{}
	for _, c := range []types.City{paris, london, tokyo} {
		stored, err := repo.AddCity(ctx, c)
		require.NoError(t, err)
		cities[c.Name] = stored
	}

	t2023, err = repo.AddTrip(ctx, types.Trip{Name: "Europe", StartDate: "2023-06-01", EndDate: "2023-06-15"})
	require.NoError(t, err)
	t2024, err = repo.AddTrip(ctx, types.Trip{Name: "Around", StartDate: "2024-07-01", EndDate: "2024-07-20"})
	require.NoError(t, err)

	require.NoError(t, repo.AddTripParticipant(ctx, t2023.ID, ada.ID))
	require.NoError(t, repo.AddTripParticipant(ctx, t2023.ID, grace.ID))
	require.NoError(t, repo.AddTripParticipant(ctx, t2024.ID, ada.ID))

	require.NoError(t, repo.AddTripCity(ctx, t2023.ID, cities["Paris"].ID, "Louvre"))
	require.NoError(t, repo.AddTripCity(ctx, t2023.ID, cities["London"].ID, ""))
	require.NoError(t, repo.AddTripCity(ctx, t2024.ID, cities["Paris"].ID, ""))
	require.NoError(t, repo.AddTripCity(ctx, t2024.ID, cities["Tokyo"].ID, ""))
	return ada, grace, t2023, t2024, cities
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func cityName(c types.City) string { return c.Name }

func TestParticipants(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)
	ada, grace, t2023, t2024, _ := seedVisits(t, repo)

	// Adding twice is a no-op.
	require.NoError(t, repo.AddTripParticipant(ctx, t2023.ID, ada.ID))

	people, err := repo.TripParticipants(ctx, t2023.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace"}, names(people, func(p types.Person) string { return p.Name }))

	trips, err := repo.PersonTrips(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, t2024.ID, trips[0].ID)

	require.NoError(t, repo.RemoveTripParticipant(ctx, t2023.ID, grace.ID))
	trips, err = repo.PersonTrips(ctx, grace.ID)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestTripCities(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)
	ada, _, t2023, _, cities := seedVisits(t, repo)

	visits, err := repo.TripCities(ctx, t2023.ID)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "London", visits[0].City.Name)
	assert.Empty(t, visits[0].Notes)
	assert.Equal(t, "Louvre", visits[1].Notes)

	require.NoError(t, repo.UpdateTripCityNotes(ctx, t2023.ID, cities["Paris"].ID, "Orsay"))
	visits, err = repo.TripCities(ctx, t2023.ID)
	require.NoError(t, err)
	assert.Equal(t, "Orsay", visits[1].Notes)
	assert.ErrorIs(t, repo.UpdateTripCityNotes(ctx, t2023.ID, cities["Tokyo"].ID, "x"), types.ErrNotFound)

	trips, err := repo.CityTrips(ctx, cities["Paris"].ID)
	require.NoError(t, err)
	assert.Len(t, trips, 2)

	personCities, err := repo.PersonCities(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"London", "Paris", "Tokyo"}, names(personCities, cityName))

	visited, err := repo.VisitedCities(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Tokyo", "London"}, names(visited, cityName))

	french, err := repo.VisitedCities(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, names(french, cityName))
}

func TestOrphanCityCleanup(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)
	_, _, t2023, t2024, cities := seedVisits(t, repo)

	// London is only on the 2023 trip.
	require.NoError(t, repo.RemoveTripCity(ctx, t2023.ID, cities["London"].ID))
	_, err := repo.GetCity(ctx, cities["London"].ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Tokyo is only on the 2024 trip; Paris survives through 2023.
	require.NoError(t, repo.DeleteTrip(ctx, t2024.ID))
	_, err = repo.GetCity(ctx, cities["Tokyo"].ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = repo.GetCity(ctx, cities["Paris"].ID)
	assert.NoError(t, err)

	visits, err := repo.TripCities(ctx, t2024.ID)
	require.NoError(t, err)
	assert.Empty(t, visits, "visits cascade with the trip")
}

func TestNoOpDeletesLeaveStoreUnmodified(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	assert.ErrorIs(t, repo.DeleteTrip(ctx, 999), types.ErrNotFound)
	require.NoError(t, repo.RemoveTripCity(ctx, 999, 999))
	assert.False(t, store.WasModified(), "nothing changed")

	trip, err := repo.AddTrip(ctx, types.Trip{Name: "Spring", StartDate: "2024-04", EndDate: "2024-04"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTrip(ctx, trip.ID))
	assert.True(t, store.WasModified())
}

func TestWritesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	repo, store := newRepo(t)

	_, err := repo.AddPerson(ctx, types.Person{Name: "Test Person"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	got, err := repo.GetPersonByName(ctx, "Test Person")
	require.NoError(t, err)
	assert.Equal(t, "Test Person", got.Name)
}
