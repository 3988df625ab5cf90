package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type TripType string

const (
	TripOneWay      TripType = "oneWay"
	TripReturn      TripType = "return"
	TripWeekend     TripType = "weekend"
	TripLongWeekend TripType = "longWeekend"
)

// RoundTrip reports whether fees are charged for both directions.
func (t TripType) RoundTrip() bool {
	return t == TripReturn || t == TripWeekend || t == TripLongWeekend
}

func (t TripType) Weekend() bool {
	return t == TripWeekend || t == TripLongWeekend
}

type Passengers struct {
	Adults   int `json:"adults" validate:"gte=0"`
	Teens    int `json:"teens" validate:"gte=0"`
	Children int `json:"children" validate:"gte=0"`
	Infants  int `json:"infants" validate:"gte=0"`
}

const DateLayout = "2006-01-02"

// SearchParams is the frozen snapshot of a submitted search. A new search
// replaces it; it is never mutated once the stream is opened.
type SearchParams struct {
	TripType        TripType   `json:"tripType" validate:"required,oneof=oneWay return weekend longWeekend"`
	StartDate       string     `json:"startDate,omitempty"`
	EndDate         string     `json:"endDate,omitempty"`
	WeekendCount    int        `json:"weekendCount,omitempty"`
	Passengers      Passengers `json:"passengers"`
	OriginAirports  []string   `json:"originAirports" validate:"required,min=1,dive,len=3"`
	WantedCountries []string   `json:"wantedCountries" validate:"required,min=1,dive,required"`
	MaxPrice        float64    `json:"maxPrice" validate:"gt=0"`
	MinDays         int        `json:"minDays,omitempty" validate:"gte=0"`
	MaxDays         int        `json:"maxDays,omitempty" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the form before anything is sent upstream and returns the
// message for the first offending field.
func (p *SearchParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0].StructNamespace())
		}
		return err
	}

	if p.Passengers.Adults+p.Passengers.Teens <= 0 {
		return ErrMissingPassengers
	}

	if p.TripType.Weekend() {
		if p.WeekendCount <= 0 {
			return ErrMissingWeekendCount
		}
		return nil
	}

	if p.StartDate == "" || p.EndDate == "" {
		return ErrMissingDates
	}
	start, err := time.Parse(DateLayout, p.StartDate)
	if err != nil {
		return ErrInvalidDates
	}
	end, err := time.Parse(DateLayout, p.EndDate)
	if err != nil || end.Before(start) {
		return ErrInvalidDates
	}
	if p.MaxDays > 0 && p.MinDays > p.MaxDays {
		return ErrInvalidTripLength
	}
	return nil
}

func fieldError(namespace string) error {
	field := strings.TrimPrefix(namespace, "SearchParams.")
	switch {
	case field == "TripType":
		return ErrMissingTripType
	case field == "OriginAirports":
		return ErrMissingOrigins
	case strings.HasPrefix(field, "OriginAirports["):
		return ErrUnknownAirport
	case strings.HasPrefix(field, "WantedCountries"):
		return ErrMissingCountries
	case strings.HasPrefix(field, "Passengers."):
		return ErrMissingPassengers
	case field == "MaxPrice":
		return ErrMissingBudget
	case field == "MinDays", field == "MaxDays":
		return ErrInvalidTripLength
	}
	return ErrInvalidRequest
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingTripType     ValidationError = "please select a trip type"
	ErrMissingPassengers   ValidationError = "please select at least one adult or teen passenger"
	ErrMissingOrigins      ValidationError = "please select at least one departure airport"
	ErrMissingCountries    ValidationError = "please select at least one destination country"
	ErrMissingDates        ValidationError = "please select your travel dates"
	ErrInvalidDates        ValidationError = "travel dates must be YYYY-MM-DD with the end on or after the start"
	ErrMissingWeekendCount ValidationError = "please select how many weekends ahead to search"
	ErrMissingBudget       ValidationError = "please set a maximum price"
	ErrInvalidTripLength   ValidationError = "minimum trip length cannot exceed the maximum"
	ErrUnknownAirport      ValidationError = "unknown departure airport"
	ErrInvalidRequest      ValidationError = "invalid search request"
)
