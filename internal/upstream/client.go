package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

const (
	DefaultTimeout = 5 * time.Second
	SearchPath     = "/api/search-flights"
	HealthPath     = "/api/health"
)

var ErrTimeout = errors.New("upstream request timed out")

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the external flight search service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		// no client-level timeout: streams stay open as long as the server sends
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
	}
}

func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// SearchURL builds the streaming search request. Weekend trips must already
// have their date window resolved.
func (c *Client) SearchURL(p models.SearchParams) string {
	q := url.Values{}
	q.Set("tripType", string(p.TripType))
	q.Set("startDate", p.StartDate)
	q.Set("endDate", p.EndDate)
	q.Set("maxPrice", strconv.FormatFloat(p.MaxPrice, 'f', -1, 64))
	q.Set("minDays", strconv.Itoa(p.MinDays))
	q.Set("maxDays", strconv.Itoa(p.MaxDays))
	q.Set("originAirports", strings.Join(p.OriginAirports, ","))
	q.Set("wantedCountries", strings.Join(p.WantedCountries, ","))
	q.Set("adults", strconv.Itoa(p.Passengers.Adults))
	q.Set("teens", strconv.Itoa(p.Passengers.Teens))
	q.Set("children", strconv.Itoa(p.Passengers.Children))
	q.Set("infants", strconv.Itoa(p.Passengers.Infants))
	q.Set("includeArrivalTime", "true")
	if p.TripType.Weekend() {
		q.Set("weekendCount", strconv.Itoa(p.WeekendCount))
	}

	return c.baseURL + SearchPath + "?" + q.Encode()
}

// Fetch performs a non-streaming GET bounded by the client timeout and
// decodes a JSON body into out (when out is non-nil).
func (c *Client) Fetch(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v: %s", ErrTimeout, c.timeout, path)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream %s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v: %s", ErrTimeout, c.timeout, path)
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Health checks the upstream service.
func (c *Client) Health(ctx context.Context) error {
	return c.Fetch(ctx, HealthPath, nil)
}
