package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightdeals/internal/likes"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/ratelimit"
	"github.com/dharmasatrya/flightdeals/internal/search"
	"github.com/dharmasatrya/flightdeals/internal/store"
	"github.com/dharmasatrya/flightdeals/internal/upstream"
)

const parisFlight = `{"outbound":{"origin":"BTS","destination":"BVA","originFull":"Bratislava, Slovakia","destinationFull":"Paris, France","departureTime":"%s","flightDuration":125,"flightNumber":"FR1","price":%d,"currency":"EUR"},"inbound":{"origin":"BVA","destination":"BTS","destinationFull":"Bratislava, Slovakia","departureTime":"2026-03-15T20:00:00+01:00","flightDuration":120,"flightNumber":"FR2","price":0,"currency":"EUR"}}`

const searchBody = `{"tripType":"return","startDate":"2026-03-01","endDate":"2026-03-31","passengers":{"adults":1},"originAirports":["BTS"],"wantedCountries":["France"],"maxPrice":300}`

type stubChecker struct{ err error }

func (s stubChecker) Health(ctx context.Context) error { return s.err }

func upstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			fmt.Sprintf(parisFlight, "2026-03-06T08:00:00+01:00", 80),
			fmt.Sprintf(parisFlight, "2026-03-07T16:00:00+01:00", 95),
			"END",
		} {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T, limiter *ratelimit.ClientLimiter) *echo.Echo {
	t.Helper()
	srv := upstreamServer(t)
	client := upstream.NewClient(upstream.Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	m := search.NewManager(search.Config{
		Opener:       search.UpstreamOpener(client),
		RemovalDelay: 10 * time.Millisecond,
	})
	t.Cleanup(m.Close)

	routes := Routes{
		Search:   NewSearchHandler(m),
		Likes:    NewLikesHandler(likes.New(store.NewMemoryStore())),
		Upstream: stubChecker{},
	}
	if limiter != nil {
		routes.SearchLimit = limiter.Middleware()
	}

	e := echo.New()
	Register(e, routes)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createCompleted(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/searches", searchBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[SessionResponse](t, rec).ID
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		rec := do(e, http.MethodGet, "/api/v1/searches/"+id, "")
		return decode[SessionResponse](t, rec).State == search.StateCompleted
	}, 2*time.Second, 10*time.Millisecond)
	return id
}

func TestHealth(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = do(e, http.MethodGet, "/health/upstream", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpstreamHealthUnavailable(t *testing.T) {
	e := echo.New()
	e.GET("/health/upstream", UpstreamHealthHandler(stubChecker{err: errors.New("boom")}))

	rec := do(e, http.MethodGet, "/health/upstream", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestCreateSearchValidation(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodPost, "/api/v1/searches", `{"tripType":"return"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error)
	assert.NotEmpty(t, resp.Message)

	rec = do(e, http.MethodPost, "/api/v1/searches", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[models.ErrorResponse](t, rec).Error)
}

func TestSearchLifecycle(t *testing.T) {
	e := newServer(t, nil)
	id := createCompleted(t, e)
	base := "/api/v1/searches/" + id

	resp := decode[SessionResponse](t, do(e, http.MethodGet, base, ""))
	assert.False(t, resp.Loading)
	assert.Equal(t, 2, resp.View.TotalFlights)
	require.Len(t, resp.View.Countries, 1)
	assert.Equal(t, "France", resp.View.Countries[0].Name)
	assert.Equal(t, models.SortPrice, resp.Filters.Sort)

	rec := do(e, http.MethodPut, base+"/filters/depart-time", `{"enabled":true,"range":{"start":9,"end":17}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[SessionResponse](t, rec)
	assert.Equal(t, 1, resp.View.TotalFlights)
	assert.True(t, resp.Filters.Active["depart-time"])
	require.NotNil(t, resp.Filters.Applied.DepartTime)

	rec = do(e, http.MethodPut, base+"/filters/depart-time", `{"range":{"start":17,"end":9}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, base+"/filters/nope", `{"enabled":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, base+"/filters/depart-time", `{"enabled":false}`)
	assert.Equal(t, 2, decode[SessionResponse](t, rec).View.TotalFlights)

	rec = do(e, http.MethodPut, base+"/sort", `{"sort":"time"}`)
	assert.Equal(t, models.SortTime, decode[SessionResponse](t, rec).View.Sort)

	resp = decode[SessionResponse](t, do(e, http.MethodGet, base+"?sort=price", ""))
	assert.Equal(t, models.SortPrice, resp.View.Sort)
	assert.Equal(t, models.SortTime, resp.Filters.Sort)

	rec = do(e, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestartSearch(t *testing.T) {
	e := newServer(t, nil)
	id := createCompleted(t, e)

	rec := do(e, http.MethodPut, "/api/v1/searches/"+id, strings.Replace(searchBody, `"BTS"`, `"ZZZ"`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(models.ErrUnknownAirport), decode[models.ErrorResponse](t, rec).Message)

	rec = do(e, http.MethodPut, "/api/v1/searches/missing", searchBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/searches/"+id, searchBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPresentationEndpoints(t *testing.T) {
	e := newServer(t, nil)
	id := createCompleted(t, e)
	base := "/api/v1/searches/" + id

	rec := do(e, http.MethodPost, base+"/reveal", `{"country":"France","city":"Paris","flightId":"BTS-BVA-2026-03-06T08:00:00+01:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[SessionResponse](t, do(e, http.MethodGet, base, "")).Presentation
	assert.True(t, state.ExpandedCountries["France"])
	assert.True(t, state.ExpandedCities["Paris"])
	require.NotNil(t, state.Highlight.FlightID)

	// the scroll instruction appears after the scroll delay, while the highlight is still up
	require.Eventually(t, func() bool {
		var resp SessionResponse
		if err := json.Unmarshal(do(e, http.MethodGet, base, "").Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Presentation.ScrollTarget != nil
	}, time.Second, 10*time.Millisecond)
	target := decode[SessionResponse](t, do(e, http.MethodGet, base, "")).Presentation.ScrollTarget
	require.NotNil(t, target.City)
	assert.Equal(t, "Paris", *target.City)

	rec = do(e, http.MethodPost, base+"/reveal", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, base+"/toggle", `{"country":"France"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[SessionResponse](t, do(e, http.MethodGet, base, "")).Presentation.ExpandedCountries["France"])

	rec = do(e, http.MethodPost, base+"/viewport", `{"width":1100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[SessionResponse](t, do(e, http.MethodGet, base, "")).Presentation
	assert.Equal(t, 3, state.CityColumns)
	assert.Equal(t, 2, state.FlightColumns)
}

func TestSearchRateLimited(t *testing.T) {
	limiter := ratelimit.NewClientLimiter(ratelimit.RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	e := newServer(t, limiter)

	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/searches", searchBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/api/v1/searches", searchBody).Code)
}

func TestLikesEndpoints(t *testing.T) {
	e := newServer(t, nil)
	body := fmt.Sprintf(parisFlight, "2026-03-06T08:00:00+01:00", 80)
	id := url.PathEscape("BTS-BVA-2026-03-06T08:00:00+01:00")

	rec := do(e, http.MethodPut, "/api/v1/clients/alice/likes/"+id, body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPut, "/api/v1/clients/alice/likes/other", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	liked := decode[[]models.Flight](t, do(e, http.MethodGet, "/api/v1/clients/alice/likes", ""))
	require.Len(t, liked, 1)
	assert.Equal(t, 80.0, liked[0].Outbound.Price)
	assert.True(t, decode[map[string]bool](t, do(e, http.MethodGet, "/api/v1/clients/alice/likes/"+id, ""))["liked"])
	assert.False(t, decode[map[string]bool](t, do(e, http.MethodGet, "/api/v1/clients/bob/likes/"+id, ""))["liked"])

	rec = do(e, http.MethodDelete, "/api/v1/clients/alice/likes/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	liked = decode[[]models.Flight](t, do(e, http.MethodGet, "/api/v1/clients/alice/likes", ""))
	assert.Empty(t, liked)
	assert.False(t, decode[map[string]bool](t, do(e, http.MethodGet, "/api/v1/clients/alice/likes/"+id, ""))["liked"])
}

func TestPreferencesEndpoints(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodGet, "/api/v1/clients/alice/preferences", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/clients/alice/preferences", searchBody)
	require.Equal(t, http.StatusOK, rec.Code)

	p := decode[models.SearchParams](t, do(e, http.MethodGet, "/api/v1/clients/alice/preferences", ""))
	assert.Equal(t, models.TripReturn, p.TripType)
	assert.Equal(t, []string{"BTS"}, p.OriginAirports)
}

func TestShareEndpoints(t *testing.T) {
	e := newServer(t, nil)
	flight := fmt.Sprintf(parisFlight, "2026-03-06T08:00:00+01:00", 80)

	rec := do(e, http.MethodPost, "/api/v1/share", `{"flight":`+flight+`,"passengers":{"adults":2},"minPrice":80,"maxPrice":120}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := decode[map[string]string](t, rec)["token"]
	require.NotEmpty(t, token)

	rec = do(e, http.MethodGet, "/api/v1/share/"+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket struct {
		Flight     models.Flight     `json:"flight"`
		Passengers models.Passengers `json:"passengers"`
		TotalPrice float64           `json:"totalPrice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, "Paris, France", ticket.Flight.Outbound.DestinationFull)
	assert.Equal(t, 2, ticket.Passengers.Adults)
	assert.Equal(t, 80.0, ticket.TotalPrice)

	rec = do(e, http.MethodGet, "/api/v1/share/garbage", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid or corrupted flight data", decode[models.ErrorResponse](t, rec).Message)

	rec = do(e, http.MethodPost, "/api/v1/share", `{"flight":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareAirportOutsideTable(t *testing.T) {
	e := newServer(t, nil)
	flight := `{"outbound":{"origin":"BTS","destination":"TFS","destinationFull":"Tenerife, Spain","destinationCountry":"Spain","departureTime":"2026-03-06T06:10:00+01:00","flightDuration":330,"flightNumber":"FR5522","price":64,"currency":"EUR"}}`

	rec := do(e, http.MethodPost, "/api/v1/share", `{"flight":`+flight+`,"passengers":{"adults":1}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := decode[map[string]string](t, rec)["token"]

	rec = do(e, http.MethodGet, "/api/v1/share/"+token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ticket struct {
		Flight models.Flight `json:"flight"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, "Tenerife, Spain", ticket.Flight.Outbound.DestinationFull)
	assert.Equal(t, "Spain", ticket.Flight.Outbound.DestinationCountry)

	rec = do(e, http.MethodPost, "/api/v1/share", `{"flight":{"outbound":{"origin":"BTS","destination":"T1","departureTime":"2026-03-06T06:10:00+01:00"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnexpectedErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, handleError(c, errors.New("disk on fire")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[models.ErrorResponse](t, rec).Error)
	assert.Contains(t, buf.String(), `"msg":"request failed"`)
	assert.Contains(t, buf.String(), "disk on fire")
}
