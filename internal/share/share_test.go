package share

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightdeals/internal/airports"
	"github.com/dharmasatrya/flightdeals/internal/models"
)

func leg(origin, dest, departure string, price float64) models.FlightLeg {
	o, _ := airports.Lookup(origin)
	d, _ := airports.Lookup(dest)
	return models.FlightLeg{
		Origin:             origin,
		Destination:        dest,
		OriginFull:         o.Display(),
		DestinationFull:    d.Display(),
		DestinationCountry: d.Country,
		DepartureTime:      departure,
		ArrivalTime:        "2026-03-06T20:05:00+01:00",
		FlightDuration:     125,
		FlightNumber:       "FR 1234",
		Price:              price,
		Currency:           "EUR",
	}
}

func TestRoundTripReturn(t *testing.T) {
	in := leg("BVA", "BTS", "2026-03-08T20:00:00+01:00", 45.5)
	f := models.Flight{Outbound: leg("BTS", "BVA", "2026-03-06T18:00:00+01:00", 80.99), Inbound: &in}
	pax := models.Passengers{Adults: 2, Teens: 1, Children: 1, Infants: 1}

	token, err := Encode(f, pax, 60, 310.25)
	require.NoError(t, err)
	assert.NotContains(t, token, "|")

	ticket, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, f, ticket.Flight)
	assert.Equal(t, pax, ticket.Passengers)
	assert.Equal(t, 60.0, ticket.MinPrice)
	assert.Equal(t, 310.25, ticket.MaxPrice)
	assert.InDelta(t, 126.49, ticket.TotalPrice, 1e-9)
}

func TestRoundTripOneWay(t *testing.T) {
	f := models.Flight{Outbound: leg("VIE", "FCO", "2026-03-06T07:00:00+01:00", 30)}

	token, err := Encode(f, models.Passengers{Adults: 1}, 30, 30)
	require.NoError(t, err)

	ticket, err := Decode(token)
	require.NoError(t, err)
	assert.Nil(t, ticket.Flight.Inbound)
	assert.Equal(t, f, ticket.Flight)
	assert.Equal(t, 30.0, ticket.TotalPrice)
}

func TestRoundTripAirportOutsideTable(t *testing.T) {
	f := models.Flight{Outbound: models.FlightLeg{
		Origin:             "BTS",
		Destination:        "TFS",
		OriginFull:         "Bratislava, Slovakia",
		DestinationFull:    "Tenerife, Spain",
		DestinationCountry: "Spain",
		DepartureTime:      "2026-03-06T06:10:00+01:00",
		ArrivalTime:        "2026-03-06T10:40:00+00:00",
		FlightDuration:     330,
		FlightNumber:       "FR 5522",
		Price:              64.5,
		Currency:           "EUR",
	}}

	token, err := Encode(f, models.Passengers{Adults: 1}, 64.5, 64.5)
	require.NoError(t, err)

	ticket, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, f, ticket.Flight)
}

func TestRoundTripKeepsEmptyNames(t *testing.T) {
	f := models.Flight{Outbound: leg("BTS", "BVA", "2026-03-06T18:00:00+01:00", 80)}
	f.Outbound.DestinationCountry = ""
	f.Outbound.OriginFull = ""

	token, err := Encode(f, models.Passengers{Adults: 1}, 80, 80)
	require.NoError(t, err)

	ticket, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, f, ticket.Flight)
}

func TestEncodeRejectsInvalidLeg(t *testing.T) {
	cases := map[string]func(*models.Flight){
		"lowercase code":   func(f *models.Flight) { f.Outbound.Destination = "bva" },
		"empty origin":     func(f *models.Flight) { f.Outbound.Origin = "" },
		"no departure":     func(f *models.Flight) { f.Outbound.DepartureTime = "" },
		"bad inbound code": func(f *models.Flight) { f.Inbound = &models.FlightLeg{Origin: "BVA", Destination: "B1S", DepartureTime: "x"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := models.Flight{Outbound: leg("BTS", "BVA", "2026-03-06T18:00:00+01:00", 80)}
			mutate(&f)
			_, err := Encode(f, models.Passengers{Adults: 1}, 0, 0)
			assert.Error(t, err)
		})
	}
}

func TestEncodeRejectsSeparator(t *testing.T) {
	f := models.Flight{Outbound: leg("BTS", "BVA", "2026-03-06T18:00:00+01:00", 80)}
	f.Outbound.FlightNumber = "FR|1"

	_, err := Encode(f, models.Passengers{Adults: 1}, 0, 0)
	assert.Error(t, err)
}

func TestDecodeCorrupted(t *testing.T) {
	good, err := Encode(models.Flight{Outbound: leg("BTS", "BVA", "2026-03-06T18:00:00+01:00", 80)}, models.Passengers{Adults: 1}, 0, 0)
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(good)
	require.NoError(t, err)

	encode := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"not base64":      "!!!",
		"wrong layout":    encode("1|BTS|BVA"),
		"wrong version":   encode("9" + string(raw)[1:]),
		"invalid airport": encode(strings.Replace(string(raw), "|BVA|", "|bv|", 1)),
		"bad number":      encode(strings.Replace(string(raw), "|125|", "|abc|", 1)),
		"bad flag":        encode(strings.Replace(string(raw), "|EUR|0|", "|EUR|7|", 1)),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			assert.ErrorIs(t, err, ErrCorruptedTicket)
		})
	}
}
