package models

import "time"

type SortKey string

const (
	SortPrice SortKey = "price"
	SortTime  SortKey = "time"
)

type FlightView struct {
	ID             string    `json:"id"`
	Flight         Flight    `json:"flight"`
	TotalPrice     float64   `json:"totalPrice"`
	FormattedPrice string    `json:"formattedPrice"`
	TotalDuration  int       `json:"totalDuration"`
	TripDays       int       `json:"tripDays"`
	DepartsAt      time.Time `json:"departsAt"`
	PriceColor     string    `json:"priceColor"`
}

type CityView struct {
	Name              string       `json:"name"`
	MinPrice          float64      `json:"minPrice"`
	MaxPrice          float64      `json:"maxPrice"`
	MinDuration       int          `json:"minDuration"`
	MaxDuration       int          `json:"maxDuration"`
	EarliestDeparture time.Time    `json:"earliestDeparture"`
	Flights           []FlightView `json:"flights"`
}

type CountryView struct {
	Name              string     `json:"name"`
	MinPrice          float64    `json:"minPrice"`
	EarliestDeparture time.Time  `json:"earliestDeparture"`
	Cities            []CityView `json:"cities"`
}

type ViewModel struct {
	Sort         SortKey       `json:"sort"`
	TotalFlights int           `json:"totalFlights"`
	Countries    []CountryView `json:"countries"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
