package models

import "strings"

type FlightLeg struct {
	Origin             string  `json:"origin"`
	Destination        string  `json:"destination"`
	OriginFull         string  `json:"originFull"`
	DestinationFull    string  `json:"destinationFull"`
	DestinationCountry string  `json:"destinationCountry,omitempty"`
	DepartureTime      string  `json:"departureTime"`
	ArrivalTime        string  `json:"arrivalTime,omitempty"`
	FlightDuration     int     `json:"flightDuration"`
	FlightNumber       string  `json:"flightNumber"`
	Price              float64 `json:"price"`
	Currency           string  `json:"currency"`
}

// Flight is a priced outbound/inbound pair as it arrives on the results stream.
// Inbound is nil for one-way trips.
type Flight struct {
	Outbound FlightLeg  `json:"outbound"`
	Inbound  *FlightLeg `json:"inbound,omitempty"`
}

const UnknownCountry = "Unknown Country"

// ID is the identity key used for highlighting, likes and anchors.
func (f Flight) ID() string {
	return f.Outbound.Origin + "-" + f.Outbound.Destination + "-" + f.Outbound.DepartureTime
}

// TotalDuration is the sum of both legs' flight minutes.
func (f Flight) TotalDuration() int {
	total := f.Outbound.FlightDuration
	if f.Inbound != nil {
		total += f.Inbound.FlightDuration
	}
	return total
}

func (f Flight) InboundPrice() float64 {
	if f.Inbound == nil {
		return 0
	}
	return f.Inbound.Price
}

// Destination splits outbound.destinationFull ("City, Country") into its city
// and country. Strings without a comma become the city of UnknownCountry.
func (f Flight) Destination() (city, country string) {
	full := strings.TrimSpace(f.Outbound.DestinationFull)
	idx := strings.LastIndex(full, ",")
	if idx < 0 {
		return full, UnknownCountry
	}
	city = strings.TrimSpace(full[:idx])
	country = strings.TrimSpace(full[idx+1:])
	if city == "" {
		city = full
	}
	if country == "" {
		country = UnknownCountry
	}
	return city, country
}
