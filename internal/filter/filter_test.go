package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

func flight(outDep, inDep string) models.Flight {
	return models.Flight{
		Outbound: models.FlightLeg{Origin: "BTS", Destination: "BVA", DestinationFull: "Paris, France", DepartureTime: outDep, Price: 50},
		Inbound:  &models.FlightLeg{Origin: "BVA", Destination: "BTS", DepartureTime: inDep, Price: 30},
	}
}

func TestHourRangeContains(t *testing.T) {
	r := HourRange{Start: 9, End: 17}
	assert.False(t, r.Contains(8))
	assert.True(t, r.Contains(9))
	assert.True(t, r.Contains(16))
	assert.False(t, r.Contains(17))

	late := HourRange{Start: 20, End: 24}
	assert.True(t, late.Contains(23))
	assert.False(t, late.Contains(19))

	assert.False(t, HourRange{Start: 5, End: 5}.Valid())
	assert.False(t, HourRange{Start: -1, End: 5}.Valid())
	assert.True(t, HourRange{Start: 0, End: 24}.Valid())
}

func TestDepartTimeFilterScenario(t *testing.T) {
	early := flight("2026-03-06T08:30:00+01:00", "2026-03-08T18:00:00+01:00")
	afternoon := flight("2026-03-06T16:45:00+01:00", "2026-03-08T18:00:00+01:00")
	flights := []models.Flight{early, afternoon}

	filters := Filters{DepartTime: &HourRange{Start: 9, End: 17}}
	got := Apply(flights, filters)
	require.Len(t, got, 1)
	assert.Equal(t, afternoon.ID(), got[0].ID())

	filters.DepartTime = nil
	assert.Len(t, Apply(flights, filters), 2)
}

func TestLocalHourUsesTimestampOffset(t *testing.T) {
	// the hour is read in the timestamp's own offset
	f := flight("2026-03-06T08:30:00Z", "2026-03-08T18:00:00+01:00")
	assert.False(t, Matches(f, Filters{DepartTime: &HourRange{Start: 9, End: 17}}))

	naive := flight("2026-03-06T09:30:00", "2026-03-08T18:00:00")
	assert.True(t, Matches(naive, Filters{DepartTime: &HourRange{Start: 9, End: 17}}))
}

func TestDayFilters(t *testing.T) {
	f := flight("2026-03-06T18:00:00+01:00", "2026-03-08T18:00:00+01:00") // Fri -> Sun

	assert.True(t, Matches(f, Filters{DepartDays: Weekdays{"Fri", "Sat"}}))
	assert.False(t, Matches(f, Filters{DepartDays: Weekdays{"Sat"}}))
	assert.True(t, Matches(f, Filters{ReturnDays: Weekdays{"sun"}}))
	assert.False(t, Matches(f, Filters{ReturnDays: Weekdays{}}))
}

func TestFiltersAreConjunctive(t *testing.T) {
	f := flight("2026-03-06T18:00:00+01:00", "2026-03-08T07:00:00+01:00")

	all := Filters{
		DepartTime: &HourRange{Start: 17, End: 24},
		ReturnTime: &HourRange{Start: 6, End: 12},
		DepartDays: Weekdays{"Fri"},
		ReturnDays: Weekdays{"Sun"},
	}
	assert.True(t, Matches(f, all))

	all.ReturnTime = &HourRange{Start: 12, End: 24}
	assert.False(t, Matches(f, all))

	all.ReturnTime = nil
	assert.True(t, Matches(f, all))
}

func TestReturnFilterNeedsInbound(t *testing.T) {
	oneWay := models.Flight{Outbound: models.FlightLeg{Origin: "BTS", DepartureTime: "2026-03-06T18:00:00+01:00"}}
	assert.True(t, Matches(oneWay, Filters{}))
	assert.False(t, Matches(oneWay, Filters{ReturnTime: &HourRange{Start: 0, End: 24}}))
}

func TestApplyDoesNotMutate(t *testing.T) {
	flights := []models.Flight{
		flight("2026-03-06T08:30:00+01:00", "2026-03-08T18:00:00+01:00"),
		flight("2026-03-06T16:45:00+01:00", "2026-03-08T18:00:00+01:00"),
	}
	snapshot := append([]models.Flight(nil), flights...)

	Apply(flights, Filters{DepartTime: &HourRange{Start: 9, End: 17}})
	assert.Equal(t, snapshot, flights)
}

func TestFiltersKey(t *testing.T) {
	a := Filters{DepartDays: Weekdays{"Sat", "Fri"}}
	b := Filters{DepartDays: Weekdays{"Fri", "Sat"}}
	assert.Equal(t, a.Key(), b.Key())

	assert.NotEqual(t, Filters{}.Key(), Filters{DepartDays: Weekdays{}}.Key())
	assert.NotEqual(t, Filters{DepartTime: &HourRange{0, 12}}.Key(), Filters{ReturnTime: &HourRange{0, 12}}.Key())
	assert.False(t, Filters{}.Active())
}

func TestSortFlights(t *testing.T) {
	t0 := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	flights := []models.FlightView{
		{ID: "a", TotalPrice: 120, DepartsAt: t0},
		{ID: "b", TotalPrice: 80, DepartsAt: t0.Add(2 * time.Hour)},
		{ID: "c", TotalPrice: 95, DepartsAt: t0.Add(time.Hour)},
		{ID: "d", TotalPrice: 80, DepartsAt: t0.Add(-time.Hour)},
	}

	SortFlights(flights, models.SortPrice)
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(flights))

	SortFlights(flights, models.SortTime)
	assert.Equal(t, []string{"d", "a", "c", "b"}, ids(flights))
}

func TestSortCitiesAndCountries(t *testing.T) {
	t0 := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

	cities := []models.CityView{
		{Name: "Paris", MinPrice: 60, EarliestDeparture: t0},
		{Name: "Nice", MinPrice: 40, EarliestDeparture: t0.Add(time.Hour)},
	}
	SortCities(cities, models.SortPrice)
	assert.Equal(t, "Nice", cities[0].Name)
	SortCities(cities, models.SortTime)
	assert.Equal(t, "Paris", cities[0].Name)

	countries := []models.CountryView{
		{Name: "Italy", MinPrice: 30, EarliestDeparture: t0.Add(time.Hour)},
		{Name: "France", MinPrice: 40, EarliestDeparture: t0},
	}
	SortCountries(countries, models.SortPrice)
	assert.Equal(t, "Italy", countries[0].Name)
	SortCountries(countries, models.SortTime)
	assert.Equal(t, "France", countries[0].Name)
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, models.SortTime, ParseSortKey("TIME"))
	assert.Equal(t, models.SortPrice, ParseSortKey("price"))
	assert.Equal(t, models.SortPrice, ParseSortKey(""))
}

func ids(flights []models.FlightView) []string {
	out := make([]string, len(flights))
	for i, f := range flights {
		out[i] = f.ID
	}
	return out
}
