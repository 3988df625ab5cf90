package share

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

const (
	version   = "2"
	separator = "|"
	// version, outbound leg, inbound flag, inbound leg, passengers, price range
	fieldCount = 1 + legFields + 1 + legFields + 4 + 2
	legFields  = 11
)

var ErrCorruptedTicket = errors.New("invalid or corrupted flight data")

// Ticket is a single shared result. TotalPrice is the sum of both base
// fares, not the passenger-adjusted price.
type Ticket struct {
	Flight     models.Flight     `json:"flight"`
	Passengers models.Passengers `json:"passengers"`
	MinPrice   float64           `json:"minPrice"`
	MaxPrice   float64           `json:"maxPrice"`
	TotalPrice float64           `json:"totalPrice"`
}

// Encode packs a flight into a URL-safe token. Display names travel with the
// token as given, so airports outside the local table round-trip too.
func Encode(f models.Flight, pax models.Passengers, minPrice, maxPrice float64) (string, error) {
	if err := checkLeg(f.Outbound); err != nil {
		return "", err
	}
	if f.Inbound != nil {
		if err := checkLeg(*f.Inbound); err != nil {
			return "", err
		}
	}

	fields := make([]string, 0, fieldCount)
	fields = append(fields, version)
	fields = append(fields, legToFields(f.Outbound)...)
	if f.Inbound != nil {
		fields = append(fields, "1")
		fields = append(fields, legToFields(*f.Inbound)...)
	} else {
		fields = append(fields, "0")
		fields = append(fields, make([]string, legFields)...)
	}
	fields = append(fields,
		cast.ToString(pax.Adults),
		cast.ToString(pax.Teens),
		cast.ToString(pax.Children),
		cast.ToString(pax.Infants),
		cast.ToString(minPrice),
		cast.ToString(maxPrice),
	)

	for _, v := range fields {
		if strings.Contains(v, separator) {
			return "", fmt.Errorf("field %q contains %q", v, separator)
		}
	}

	raw := strings.Join(fields, separator)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

func legToFields(l models.FlightLeg) []string {
	return []string{
		l.Origin,
		l.Destination,
		l.OriginFull,
		l.DestinationFull,
		l.DestinationCountry,
		l.DepartureTime,
		l.ArrivalTime,
		cast.ToString(l.FlightDuration),
		l.FlightNumber,
		cast.ToString(l.Price),
		l.Currency,
	}
}

// Decode unpacks a token. Any malformed field or invalid airport code yields
// ErrCorruptedTicket.
func Decode(token string) (Ticket, error) {
	var t Ticket

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return t, fmt.Errorf("%w: %v", ErrCorruptedTicket, err)
	}
	fields := strings.Split(string(raw), separator)
	if len(fields) != fieldCount || fields[0] != version {
		return t, fmt.Errorf("%w: unexpected layout", ErrCorruptedTicket)
	}

	p := parser{fields: fields[1:]}
	out := p.leg()
	hasInbound := p.next()
	in := p.leg()
	t.Passengers = models.Passengers{
		Adults:   p.number(),
		Teens:    p.number(),
		Children: p.number(),
		Infants:  p.number(),
	}
	t.MinPrice = p.amount()
	t.MaxPrice = p.amount()
	if p.err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrCorruptedTicket, p.err)
	}

	if err := checkLeg(out); err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrCorruptedTicket, err)
	}
	t.Flight.Outbound = out

	switch hasInbound {
	case "1":
		if err := checkLeg(in); err != nil {
			return Ticket{}, fmt.Errorf("%w: %v", ErrCorruptedTicket, err)
		}
		t.Flight.Inbound = &in
	case "0":
	default:
		return Ticket{}, fmt.Errorf("%w: bad inbound flag", ErrCorruptedTicket)
	}

	t.TotalPrice = t.Flight.Outbound.Price + t.Flight.InboundPrice()
	return t, nil
}

func checkLeg(l models.FlightLeg) error {
	if !validCode(l.Origin) {
		return fmt.Errorf("invalid airport code %q", l.Origin)
	}
	if !validCode(l.Destination) {
		return fmt.Errorf("invalid airport code %q", l.Destination)
	}
	if l.DepartureTime == "" {
		return errors.New("missing departure time")
	}
	return nil
}

// validCode accepts three-letter IATA codes.
func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type parser struct {
	fields []string
	pos    int
	err    error
}

func (p *parser) next() string {
	if p.pos >= len(p.fields) {
		p.err = errors.New("too few fields")
		return ""
	}
	v := p.fields[p.pos]
	p.pos++
	return v
}

func (p *parser) number() int {
	v := p.next()
	if v == "" {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil && p.err == nil {
		p.err = err
	}
	if n < 0 && p.err == nil {
		p.err = fmt.Errorf("negative value %d", n)
	}
	return n
}

func (p *parser) amount() float64 {
	v := p.next()
	if v == "" {
		return 0
	}
	n, err := cast.ToFloat64E(v)
	if err != nil && p.err == nil {
		p.err = err
	}
	return n
}

func (p *parser) leg() models.FlightLeg {
	return models.FlightLeg{
		Origin:             p.next(),
		Destination:        p.next(),
		OriginFull:         p.next(),
		DestinationFull:    p.next(),
		DestinationCountry: p.next(),
		DepartureTime:      p.next(),
		ArrivalTime:        p.next(),
		FlightDuration:     p.number(),
		FlightNumber:       p.next(),
		Price:              p.amount(),
		Currency:           p.next(),
	}
}
