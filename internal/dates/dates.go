package dates

import (
	"time"

	"github.com/dharmasatrya/flightdeals/internal/airports"
	"github.com/dharmasatrya/flightdeals/internal/models"
)

// FridayCutoffHour is the local hour from which a Friday departure counts as
// the start of a weekend.
const FridayCutoffHour = 17

func OutboundDeparture(f models.Flight) (time.Time, error) {
	return airports.ParseTime(f.Outbound.DepartureTime, f.Outbound.Origin)
}

func InboundDeparture(f models.Flight) (time.Time, error) {
	if f.Inbound == nil {
		return OutboundDeparture(f)
	}
	return airports.ParseTime(f.Inbound.DepartureTime, f.Inbound.Origin)
}

// IsFlightWithinDateRange reports whether the inbound leg departs no later
// than the end of params.EndDate. Nil params or an unset end date pass.
func IsFlightWithinDateRange(f models.Flight, params *models.SearchParams) bool {
	if params == nil || params.EndDate == "" {
		return true
	}

	dep, err := InboundDeparture(f)
	if err != nil {
		return false
	}

	end, err := time.ParseInLocation(models.DateLayout, params.EndDate, dep.Location())
	if err != nil {
		return true
	}
	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999_000_000, dep.Location())

	return !dep.After(endOfDay)
}

// IsValidWeekendFlight applies the weekend window rules for weekend and
// long weekend trips. Other trip types always pass.
func IsValidWeekendFlight(f models.Flight, tripType models.TripType) bool {
	if !tripType.Weekend() {
		return true
	}

	out, err := OutboundDeparture(f)
	if err != nil {
		return false
	}
	in, err := InboundDeparture(f)
	if err != nil {
		return false
	}

	if tripType == models.TripLongWeekend {
		switch out.Weekday() {
		case time.Thursday:
			return in.Weekday() == time.Saturday || in.Weekday() == time.Sunday
		case time.Friday, time.Saturday:
			return in.Weekday() == time.Sunday || in.Weekday() == time.Monday
		default:
			return false
		}
	}

	switch out.Weekday() {
	case time.Friday:
		if out.Hour() < FridayCutoffHour {
			return false
		}
	case time.Saturday:
	default:
		return false
	}
	return in.Weekday() == time.Saturday || in.Weekday() == time.Sunday
}

// GenerateWeekendDates returns the window searched for the weekendCount-th
// upcoming weekend, starting at midnight of its first day.
func GenerateWeekendDates(now time.Time, weekendCount int, isLongWeekend bool) (start, end time.Time) {
	startDay := time.Friday
	length := 2
	if isLongWeekend {
		startDay = time.Thursday
		length = 4
	}

	daysUntil := (int(startDay) - int(now.Weekday()) + 7) % 7
	if daysUntil == 0 && startDay == time.Friday && now.Hour() >= FridayCutoffHour {
		daysUntil = 7
	}
	if weekendCount > 1 {
		daysUntil += (weekendCount - 1) * 7
	}

	start = midnight(now).AddDate(0, 0, daysUntil)
	end = start.AddDate(0, 0, length)
	return start, end
}

// CalculateTripDays counts calendar days between two departures, ignoring
// the time of day.
func CalculateTripDays(outbound, inbound time.Time) int {
	a := time.Date(outbound.Year(), outbound.Month(), outbound.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(inbound.Year(), inbound.Month(), inbound.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsWithinTripLength checks the [minDays, maxDays] bounds of a return trip.
// Zero bounds are treated as unset.
func IsWithinTripLength(f models.Flight, params *models.SearchParams) bool {
	if params == nil || params.TripType != models.TripReturn || f.Inbound == nil {
		return true
	}
	if params.MinDays <= 0 && params.MaxDays <= 0 {
		return true
	}

	out, err := OutboundDeparture(f)
	if err != nil {
		return false
	}
	in, err := InboundDeparture(f)
	if err != nil {
		return false
	}

	days := CalculateTripDays(out, in)
	if params.MinDays > 0 && days < params.MinDays {
		return false
	}
	if params.MaxDays > 0 && days > params.MaxDays {
		return false
	}
	return true
}

// IsValid combines every display-time validity rule applied before
// aggregation. Flights missing the inbound leg of a round trip are dropped.
func IsValid(f models.Flight, params *models.SearchParams) bool {
	if params != nil && params.TripType.RoundTrip() && f.Inbound == nil {
		return false
	}
	tripType := models.TripReturn
	if params != nil {
		tripType = params.TripType
	}
	return IsFlightWithinDateRange(f, params) &&
		IsValidWeekendFlight(f, tripType) &&
		IsWithinTripLength(f, params)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ResolveWindow fills StartDate/EndDate for weekend trips from the weekend
// count. Other trip types are returned unchanged.
func ResolveWindow(p models.SearchParams, now time.Time) models.SearchParams {
	if !p.TripType.Weekend() {
		return p
	}
	start, end := GenerateWeekendDates(now, p.WeekendCount, p.TripType == models.TripLongWeekend)
	p.StartDate = start.Format(models.DateLayout)
	p.EndDate = end.Format(models.DateLayout)
	return p
}
