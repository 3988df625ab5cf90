package pricing

import (
	"fmt"
	"math"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

const (
	// InfantFee is charged per infant, per direction.
	InfantFee = 25.0
	// ReservedSeatFee is charged once per direction when children travel,
	// since they must be seated next to an adult.
	ReservedSeatFee = 9.0
)

// TotalPrice returns the passenger-adjusted total for one booking.
func TotalPrice(outboundPrice, inboundPrice float64, pax models.Passengers, tripType models.TripType) float64 {
	directions := 1.0
	total := outboundPrice
	if tripType.RoundTrip() {
		directions = 2
		total += inboundPrice
	}

	if pax.Infants > 0 {
		total += float64(pax.Infants) * InfantFee * directions
	}
	if pax.Children > 0 {
		total += ReservedSeatFee * directions
	}

	return math.Round(total*100) / 100
}

func FlightTotal(f models.Flight, pax models.Passengers, tripType models.TripType) float64 {
	return TotalPrice(f.Outbound.Price, f.InboundPrice(), pax, tripType)
}

type rgb struct {
	r, g, b float64
}

var (
	green  = rgb{34, 197, 94}
	yellow = rgb{234, 179, 8}
	red    = rgb{239, 68, 68}
)

// PriceColor maps price onto a green -> yellow -> red gradient spanning
// [minPrice, maxPrice]. A degenerate range is always green.
func PriceColor(price, minPrice, maxPrice float64) string {
	if maxPrice <= minPrice {
		return green.String()
	}

	p := (price - minPrice) / (maxPrice - minPrice)
	p = math.Max(0, math.Min(1, p))

	if p <= 0.5 {
		return interpolate(green, yellow, p*2).String()
	}
	return interpolate(yellow, red, (p-0.5)*2).String()
}

func interpolate(from, to rgb, t float64) rgb {
	return rgb{
		r: from.r + (to.r-from.r)*t,
		g: from.g + (to.g-from.g)*t,
		b: from.b + (to.b-from.b)*t,
	}
}

func (c rgb) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", int(math.Round(c.r)), int(math.Round(c.g)), int(math.Round(c.b)))
}
