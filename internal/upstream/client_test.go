package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

func TestSearchURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://api.example.com/"})

	raw := c.SearchURL(models.SearchParams{
		TripType:        models.TripWeekend,
		StartDate:       "2026-03-06",
		EndDate:         "2026-03-08",
		WeekendCount:    1,
		Passengers:      models.Passengers{Adults: 2, Infants: 1},
		OriginAirports:  []string{"BTS", "VIE"},
		WantedCountries: []string{"France", "Italy"},
		MaxPrice:        150.5,
		MinDays:         1,
		MaxDays:         3,
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/api/search-flights", u.Path)
	assert.Equal(t, "api.example.com", u.Host)

	q := u.Query()
	assert.Equal(t, "weekend", q.Get("tripType"))
	assert.Equal(t, "2026-03-06", q.Get("startDate"))
	assert.Equal(t, "2026-03-08", q.Get("endDate"))
	assert.Equal(t, "150.5", q.Get("maxPrice"))
	assert.Equal(t, "BTS,VIE", q.Get("originAirports"))
	assert.Equal(t, "France,Italy", q.Get("wantedCountries"))
	assert.Equal(t, "2", q.Get("adults"))
	assert.Equal(t, "0", q.Get("teens"))
	assert.Equal(t, "1", q.Get("infants"))
	assert.Equal(t, "true", q.Get("includeArrivalTime"))
	assert.Equal(t, "1", q.Get("weekendCount"))
	assert.Equal(t, "1", q.Get("minDays"))
	assert.Equal(t, "3", q.Get("maxDays"))
}

func TestSearchURLOmitsWeekendCount(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://api.example.com"})
	u, err := url.Parse(c.SearchURL(models.SearchParams{TripType: models.TripReturn, WeekendCount: 3}))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("weekendCount"))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case HealthPath:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, c.Fetch(context.Background(), HealthPath, &body))
	assert.Equal(t, "ok", body.Status)
	assert.NoError(t, c.Health(context.Background()))

	err := c.Fetch(context.Background(), "/slow", nil)
	assert.ErrorIs(t, err, ErrTimeout)

	err = c.Fetch(context.Background(), "/missing", nil)
	assert.ErrorContains(t, err, "404")
}

func TestDefaultTimeout(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.NotNil(t, c.HTTPClient())
}
