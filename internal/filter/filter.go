package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/dates"
	"github.com/dharmasatrya/flightdeals/internal/models"
)

// HourRange is a local-hour window [Start, End). End == 24 includes hour 23.
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r HourRange) Contains(hour int) bool {
	if r.End == 24 {
		return hour >= r.Start
	}
	return hour >= r.Start && hour < r.End
}

func (r HourRange) Valid() bool {
	return r.Start >= 0 && r.End <= 24 && r.Start < r.End
}

// Weekdays holds 3-letter day names ("Mon", "Tue", ...). A nil set is an
// inactive filter; an empty non-nil set matches nothing.
type Weekdays []string

func (w Weekdays) Contains(day time.Weekday) bool {
	name := day.String()[:3]
	for _, d := range w {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// Filters are ANDed. A nil field is inactive and passes everything.
type Filters struct {
	DepartTime *HourRange `json:"departTime"`
	ReturnTime *HourRange `json:"returnTime"`
	DepartDays Weekdays   `json:"departDays"`
	ReturnDays Weekdays   `json:"returnDays"`
}

func (f Filters) Active() bool {
	return f.DepartTime != nil || f.ReturnTime != nil || f.DepartDays != nil || f.ReturnDays != nil
}

// Key is a stable textual form of the filter set, used for memoization.
func (f Filters) Key() string {
	var b strings.Builder
	writeRange := func(r *HourRange) {
		if r == nil {
			b.WriteString("-|")
			return
		}
		fmt.Fprintf(&b, "%d-%d|", r.Start, r.End)
	}
	writeDays := func(w Weekdays) {
		if w == nil {
			b.WriteString("-|")
			return
		}
		days := append([]string(nil), w...)
		sort.Strings(days)
		b.WriteString("[" + strings.Join(days, ",") + "]|")
	}
	writeRange(f.DepartTime)
	writeRange(f.ReturnTime)
	writeDays(f.DepartDays)
	writeDays(f.ReturnDays)
	return b.String()
}

func Apply(flights []models.Flight, filters Filters) []models.Flight {
	result := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if Matches(f, filters) {
			result = append(result, f)
		}
	}
	return result
}

func Matches(f models.Flight, filters Filters) bool {
	if filters.DepartTime != nil || filters.DepartDays != nil {
		dep, err := dates.OutboundDeparture(f)
		if err != nil {
			return false
		}
		if filters.DepartTime != nil && !filters.DepartTime.Contains(dep.Hour()) {
			return false
		}
		if filters.DepartDays != nil && !filters.DepartDays.Contains(dep.Weekday()) {
			return false
		}
	}

	if filters.ReturnTime != nil || filters.ReturnDays != nil {
		if f.Inbound == nil {
			return false
		}
		ret, err := dates.InboundDeparture(f)
		if err != nil {
			return false
		}
		if filters.ReturnTime != nil && !filters.ReturnTime.Contains(ret.Hour()) {
			return false
		}
		if filters.ReturnDays != nil && !filters.ReturnDays.Contains(ret.Weekday()) {
			return false
		}
	}

	return true
}

func ParseSortKey(s string) models.SortKey {
	if strings.EqualFold(s, string(models.SortTime)) {
		return models.SortTime
	}
	return models.SortPrice
}

func SortFlights(flights []models.FlightView, key models.SortKey) {
	sort.SliceStable(flights, func(i, j int) bool {
		if key == models.SortTime {
			return flights[i].DepartsAt.Before(flights[j].DepartsAt)
		}
		return flights[i].TotalPrice < flights[j].TotalPrice
	})
}

func SortCities(cities []models.CityView, key models.SortKey) {
	sort.SliceStable(cities, func(i, j int) bool {
		if key == models.SortTime {
			return cities[i].EarliestDeparture.Before(cities[j].EarliestDeparture)
		}
		return cities[i].MinPrice < cities[j].MinPrice
	})
}

func SortCountries(countries []models.CountryView, key models.SortKey) {
	sort.SliceStable(countries, func(i, j int) bool {
		if key == models.SortTime {
			return countries[i].EarliestDeparture.Before(countries[j].EarliestDeparture)
		}
		return countries[i].MinPrice < countries[j].MinPrice
	})
}
