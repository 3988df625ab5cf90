package view

import (
	"sort"
	"sync"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/aggregator"
	"github.com/dharmasatrya/flightdeals/internal/dates"
	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/pricing"
	"github.com/dharmasatrya/flightdeals/pkg/currency"
)

var defaultPassengers = models.Passengers{Adults: 1}

// Recompute runs validity filtering, user filters, aggregation and sorting
// over flights and returns a fresh view model. It has no side effects.
func Recompute(flights []models.Flight, params *models.SearchParams, filters filter.Filters, sortKey models.SortKey) models.ViewModel {
	pax := defaultPassengers
	tripType := models.TripReturn
	if params != nil {
		pax = params.Passengers
		tripType = params.TripType
	}

	valid := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if dates.IsValid(f, params) {
			valid = append(valid, f)
		}
	}

	grouped := aggregator.Aggregate(filter.Apply(valid, filters), pax, tripType)

	vm := models.ViewModel{
		Sort:      sortKey,
		Countries: make([]models.CountryView, 0, len(grouped)),
	}
	for countryName, country := range grouped {
		cv := models.CountryView{
			Name:     countryName,
			MinPrice: country.MinPrice,
			Cities:   make([]models.CityView, 0, len(country.Cities)),
		}
		for cityName, city := range country.Cities {
			cityView := buildCity(cityName, city)
			vm.TotalFlights += len(cityView.Flights)
			cv.EarliestDeparture = earliest(cv.EarliestDeparture, cityView.EarliestDeparture)
			cv.Cities = append(cv.Cities, cityView)
		}

		// map iteration order is random; settle it before the stable sort
		sort.Slice(cv.Cities, func(i, j int) bool { return cv.Cities[i].Name < cv.Cities[j].Name })
		filter.SortCities(cv.Cities, sortKey)
		for i := range cv.Cities {
			filter.SortFlights(cv.Cities[i].Flights, sortKey)
		}
		vm.Countries = append(vm.Countries, cv)
	}

	sort.Slice(vm.Countries, func(i, j int) bool { return vm.Countries[i].Name < vm.Countries[j].Name })
	filter.SortCountries(vm.Countries, sortKey)

	return vm
}

func buildCity(name string, city *aggregator.CityData) models.CityView {
	cv := models.CityView{
		Name:        name,
		MinPrice:    city.MinPrice,
		MaxPrice:    city.MaxPrice,
		MinDuration: city.MinDuration,
		MaxDuration: city.MaxDuration,
		Flights:     make([]models.FlightView, 0, len(city.Flights)),
	}

	for _, pf := range city.Flights {
		fv := models.FlightView{
			ID:             pf.Flight.ID(),
			Flight:         pf.Flight,
			TotalPrice:     pf.TotalPrice,
			FormattedPrice: currency.Format(pf.TotalPrice, pf.Flight.Outbound.Currency),
			TotalDuration:  pf.Duration,
			PriceColor:     pricing.PriceColor(pf.TotalPrice, city.MinPrice, city.MaxPrice),
		}
		if out, err := dates.OutboundDeparture(pf.Flight); err == nil {
			fv.DepartsAt = out
			if in, err := dates.InboundDeparture(pf.Flight); err == nil && pf.Flight.Inbound != nil {
				fv.TripDays = dates.CalculateTripDays(out, in)
			}
		}
		cv.EarliestDeparture = earliest(cv.EarliestDeparture, fv.DepartsAt)
		cv.Flights = append(cv.Flights, fv)
	}

	return cv
}

func earliest(current, candidate time.Time) time.Time {
	if candidate.IsZero() {
		return current
	}
	if current.IsZero() || candidate.Before(current) {
		return candidate
	}
	return current
}

type memoKey struct {
	version uint64
	params  *models.SearchParams
	filters string
	sort    models.SortKey
}

// Memo caches the last Recompute result. Callers pass a version that changes
// whenever the flight list changes; returned view models are shared and must
// be treated as read-only.
type Memo struct {
	mu           sync.Mutex
	key          memoKey
	vm           models.ViewModel
	ok           bool
	computations int
}

func (m *Memo) Get(version uint64, flights []models.Flight, params *models.SearchParams, filters filter.Filters, sortKey models.SortKey) models.ViewModel {
	key := memoKey{version: version, params: params, filters: filters.Key(), sort: sortKey}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ok && m.key == key {
		return m.vm
	}
	m.vm = Recompute(flights, params, filters, sortKey)
	m.key = key
	m.ok = true
	m.computations++
	return m.vm
}

func (m *Memo) Computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations
}
