package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	sse "github.com/tmaxmax/go-sse"

	"github.com/dharmasatrya/flightdeals/internal/dates"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/upstream"
)

const noFlightsPayload = `{"type":"NO_FLIGHTS"}`

// Server is a development stand-in for the upstream flight search service.
// It streams the combined results of its providers as server-sent events.
type Server struct {
	providers []Provider
	// Pace is the pause between two streamed flights.
	Pace time.Duration
	Now  func() time.Time
}

func NewServer(providers []Provider) *Server {
	return &Server{providers: providers, Now: time.Now}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET(upstream.SearchPath, s.SearchFlights)
	e.GET(upstream.HealthPath, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "providers": len(s.providers)})
	})
}

// ParseSearchQuery reads the query built by upstream.Client.SearchURL.
func ParseSearchQuery(q url.Values, now time.Time) (models.SearchParams, error) {
	p := models.SearchParams{
		TripType:     models.TripType(q.Get("tripType")),
		StartDate:    q.Get("startDate"),
		EndDate:      q.Get("endDate"),
		WeekendCount: cast.ToInt(q.Get("weekendCount")),
		MaxPrice:     cast.ToFloat64(q.Get("maxPrice")),
		MinDays:      cast.ToInt(q.Get("minDays")),
		MaxDays:      cast.ToInt(q.Get("maxDays")),
		Passengers: models.Passengers{
			Adults:   cast.ToInt(q.Get("adults")),
			Teens:    cast.ToInt(q.Get("teens")),
			Children: cast.ToInt(q.Get("children")),
			Infants:  cast.ToInt(q.Get("infants")),
		},
		OriginAirports:  splitList(q.Get("originAirports")),
		WantedCountries: splitList(q.Get("wantedCountries")),
	}
	if p.TripType.Weekend() && p.StartDate == "" {
		p = dates.ResolveWindow(p, now)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SearchFlights streams every matching flight as one event, cheapest first,
// followed by END. An empty result is a single NO_FLIGHTS event.
func (s *Server) SearchFlights(c echo.Context) error {
	params, err := ParseSearchQuery(c.QueryParams(), s.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	ctx := c.Request().Context()
	flights := s.search(ctx, params)

	sess, err := sse.Upgrade(c.Response(), c.Request())
	if err != nil {
		return err
	}

	if len(flights) == 0 {
		return send(sess, noFlightsPayload)
	}

	for i, f := range flights {
		if i > 0 && s.Pace > 0 {
			select {
			case <-time.After(s.Pace):
			case <-ctx.Done():
				return nil
			}
		}
		payload, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := send(sess, string(payload)); err != nil {
			// client went away
			return nil
		}
	}
	return send(sess, "END")
}

func send(sess *sse.Session, data string) error {
	m := &sse.Message{}
	m.AppendData(data)
	if err := sess.Send(m); err != nil {
		return err
	}
	return sess.Flush()
}

// search queries all providers concurrently. A failing provider is logged
// and skipped.
func (s *Server) search(ctx context.Context, params models.SearchParams) []models.Flight {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []models.Flight
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			flights, err := p.Search(ctx, params)
			if err != nil {
				slog.WarnContext(ctx, "provider search failed", "error", NewProviderError(p.Name(), err))
				return
			}
			mu.Lock()
			results = append(results, flights...)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return baseFare(results[i]) < baseFare(results[j])
	})
	return results
}
