package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/airports"
	"github.com/dharmasatrya/flightdeals/internal/dates"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/providers/data"
)

// maxReturnsPerOutbound bounds how many inbound legs are paired with one
// outbound leg.
const maxReturnsPerOutbound = 3

type timetableFile struct {
	Routes []route `json:"routes"`
}

type route struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	FlightNumber string   `json:"flight_number"`
	Days         []string `json:"days"`
	Depart       string   `json:"depart"`
	Duration     int      `json:"duration_minutes"`
	Fare         float64  `json:"fare"`
	Currency     string   `json:"currency"`

	hour, minute int
	weekdays     map[time.Weekday]bool
}

// TimetableProvider expands a weekly schedule into dated, priced legs.
type TimetableProvider struct {
	name   string
	routes []route
}

func NewTimetableProvider(name string, raw []byte) (*TimetableProvider, error) {
	var file timetableFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	for i := range file.Routes {
		if err := file.Routes[i].prepare(); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return &TimetableProvider{name: name, routes: file.Routes}, nil
}

func NewDefaultProvider() (*TimetableProvider, error) {
	return NewTimetableProvider("timetable", data.Timetable)
}

func (p *TimetableProvider) Name() string {
	return p.name
}

func (r *route) prepare() error {
	if !airports.Known(r.From) || !airports.Known(r.To) {
		return fmt.Errorf("unknown airport in %s-%s", r.From, r.To)
	}
	t, err := time.Parse("15:04", r.Depart)
	if err != nil {
		return fmt.Errorf("bad departure time %q", r.Depart)
	}
	r.hour, r.minute = t.Hour(), t.Minute()

	r.weekdays = make(map[time.Weekday]bool, len(r.Days))
	for _, d := range r.Days {
		wd, ok := parseWeekday(d)
		if !ok {
			return fmt.Errorf("bad weekday %q", d)
		}
		r.weekdays[wd] = true
	}
	if r.Currency == "" {
		r.Currency = "EUR"
	}
	return nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String()[:3], s) {
			return d, true
		}
	}
	return 0, false
}

// legs returns every departure of r on local calendar dates in [start, end].
func (r route) legs(start, end time.Time) []models.FlightLeg {
	origin, _ := airports.Lookup(r.From)
	dest, _ := airports.Lookup(r.To)
	originLoc := airports.GetLocationByAirport(r.From)
	destLoc := airports.GetLocationByAirport(r.To)

	var out []models.FlightLeg
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dep := time.Date(day.Year(), day.Month(), day.Day(), r.hour, r.minute, 0, 0, originLoc)
		if !r.weekdays[dep.Weekday()] {
			continue
		}
		arr := dep.Add(time.Duration(r.Duration) * time.Minute).In(destLoc)

		out = append(out, models.FlightLeg{
			Origin:             r.From,
			Destination:        r.To,
			OriginFull:         origin.Display(),
			DestinationFull:    dest.Display(),
			DestinationCountry: dest.Country,
			DepartureTime:      dep.Format(time.RFC3339),
			ArrivalTime:        arr.Format(time.RFC3339),
			FlightDuration:     r.Duration,
			FlightNumber:       r.FlightNumber,
			Price:              r.fareOn(dep),
			Currency:           r.Currency,
		})
	}
	return out
}

// fareOn varies the base fare by date so results are not uniform. Fridays
// and Sundays are dearer.
func (r route) fareOn(dep time.Time) float64 {
	factor := 1 + float64((dep.YearDay()*37+len(r.FlightNumber))%40)/100
	if dep.Weekday() == time.Friday || dep.Weekday() == time.Sunday {
		factor += 0.3
	}
	return math.Round(r.Fare*factor*100) / 100
}

func (p *TimetableProvider) Search(ctx context.Context, params models.SearchParams) ([]models.Flight, error) {
	start, err := time.Parse(models.DateLayout, params.StartDate)
	if err != nil {
		return nil, models.ErrInvalidDates
	}
	end, err := time.Parse(models.DateLayout, params.EndDate)
	if err != nil {
		return nil, models.ErrInvalidDates
	}

	origins := make(map[string]bool, len(params.OriginAirports))
	for _, o := range params.OriginAirports {
		origins[strings.ToUpper(o)] = true
	}
	countries := make(map[string]bool, len(params.WantedCountries))
	for _, c := range params.WantedCountries {
		countries[strings.ToLower(c)] = true
	}

	var results []models.Flight
	for _, r := range p.routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !origins[r.From] {
			continue
		}
		dest, _ := airports.Lookup(r.To)
		if !countries[strings.ToLower(dest.Country)] {
			continue
		}

		for _, out := range r.legs(start, end) {
			if !params.TripType.RoundTrip() {
				if params.MaxPrice <= 0 || out.Price <= params.MaxPrice {
					results = append(results, models.Flight{Outbound: out})
				}
				continue
			}
			results = append(results, p.pair(out, start, end, params)...)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return baseFare(results[i]) < baseFare(results[j])
	})
	return results, nil
}

// pair matches out with the earliest valid inbound legs on the reverse route.
func (p *TimetableProvider) pair(out models.FlightLeg, start, end time.Time, params models.SearchParams) []models.Flight {
	arrived, err := time.Parse(time.RFC3339, out.ArrivalTime)
	if err != nil {
		return nil
	}

	var candidates []models.Flight
	for _, r := range p.routes {
		if r.From != out.Destination || r.To != out.Origin {
			continue
		}
		for _, in := range r.legs(start, end) {
			dep, err := time.Parse(time.RFC3339, in.DepartureTime)
			if err != nil || !dep.After(arrived) {
				continue
			}
			leg := in
			f := models.Flight{Outbound: out, Inbound: &leg}
			if params.MaxPrice > 0 && baseFare(f) > params.MaxPrice {
				continue
			}
			if !dates.IsValid(f, &params) {
				continue
			}
			candidates = append(candidates, f)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Inbound.DepartureTime < candidates[j].Inbound.DepartureTime
	})
	if len(candidates) > maxReturnsPerOutbound {
		candidates = candidates[:maxReturnsPerOutbound]
	}
	return candidates
}

func baseFare(f models.Flight) float64 {
	return f.Outbound.Price + f.InboundPrice()
}
