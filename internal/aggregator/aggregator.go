package aggregator

import (
	"sort"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/pricing"
)

// MaxFlightsPerCity caps every city bucket; only the cheapest are kept.
const MaxFlightsPerCity = 15

type PricedFlight struct {
	Flight     models.Flight
	TotalPrice float64
	Duration   int
}

// CityData extrema cover every eligible flight for the city, including the
// ones dropped by the cap.
type CityData struct {
	Flights     []PricedFlight
	MinPrice    float64
	MaxPrice    float64
	MinDuration int
	MaxDuration int
}

type CountryData struct {
	MinPrice float64
	Cities   map[string]*CityData
}

type Result map[string]*CountryData

// Aggregate folds flights into Country -> City -> flights. It never mutates
// its input and always returns freshly allocated structures.
func Aggregate(flights []models.Flight, pax models.Passengers, tripType models.TripType) Result {
	priced := make([]PricedFlight, len(flights))
	for i, f := range flights {
		priced[i] = PricedFlight{
			Flight:     f,
			TotalPrice: pricing.FlightTotal(f, pax, tripType),
			Duration:   f.TotalDuration(),
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].TotalPrice < priced[j].TotalPrice
	})

	result := make(Result)
	for _, pf := range priced {
		city, country := pf.Flight.Destination()

		cd, ok := result[country]
		if !ok {
			cd = &CountryData{MinPrice: pf.TotalPrice, Cities: make(map[string]*CityData)}
			result[country] = cd
		}

		bucket, ok := cd.Cities[city]
		if !ok {
			bucket = &CityData{
				MinPrice:    pf.TotalPrice,
				MaxPrice:    pf.TotalPrice,
				MinDuration: pf.Duration,
				MaxDuration: pf.Duration,
			}
			cd.Cities[city] = bucket
		}

		bucket.add(pf)

		if pf.TotalPrice < cd.MinPrice {
			cd.MinPrice = pf.TotalPrice
		}
	}

	return result
}

func (c *CityData) add(pf PricedFlight) {
	if pf.TotalPrice < c.MinPrice {
		c.MinPrice = pf.TotalPrice
	}
	if pf.TotalPrice > c.MaxPrice {
		c.MaxPrice = pf.TotalPrice
	}
	if pf.Duration < c.MinDuration {
		c.MinDuration = pf.Duration
	}
	if pf.Duration > c.MaxDuration {
		c.MaxDuration = pf.Duration
	}

	c.Flights = append(c.Flights, pf)
	sort.SliceStable(c.Flights, func(i, j int) bool {
		return c.Flights[i].TotalPrice < c.Flights[j].TotalPrice
	})
	if len(c.Flights) > MaxFlightsPerCity {
		c.Flights = c.Flights[:MaxFlightsPerCity]
	}
}

// FlightCount returns the number of retained flights across all cities.
func (r Result) FlightCount() int {
	n := 0
	for _, country := range r {
		for _, city := range country.Cities {
			n += len(city.Flights)
		}
	}
	return n
}
