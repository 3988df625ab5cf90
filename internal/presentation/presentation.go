package presentation

import (
	"sync"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/schedule"
)

const (
	DefaultScrollDelay       = 100 * time.Millisecond
	DefaultHighlightDuration = 2000 * time.Millisecond

	scrollTask = "presentation-scroll"
	clearTask  = "presentation-highlight-clear"
)

// Highlight marks the entity a reveal should draw attention to. Each part
// is nil when unset.
type Highlight struct {
	Country  *string `json:"country"`
	City     *string `json:"city"`
	FlightID *string `json:"flightId"`
}

func (h Highlight) Empty() bool {
	return h.Country == nil && h.City == nil && h.FlightID == nil
}

type Breakpoint struct {
	MinWidth int
	Columns  int
}

// Breakpoint tables, widest first.
var (
	CityBreakpoints = []Breakpoint{
		{MinWidth: 1280, Columns: 4},
		{MinWidth: 1024, Columns: 3},
		{MinWidth: 640, Columns: 2},
		{MinWidth: 0, Columns: 1},
	}
	FlightBreakpoints = []Breakpoint{
		{MinWidth: 1280, Columns: 3},
		{MinWidth: 768, Columns: 2},
		{MinWidth: 0, Columns: 1},
	}
)

func Columns(width int, table []Breakpoint) int {
	for _, bp := range table {
		if width >= bp.MinWidth {
			return bp.Columns
		}
	}
	return 1
}

type State struct {
	ExpandedCountries map[string]bool `json:"expandedCountries"`
	ExpandedCities    map[string]bool `json:"expandedCities"`
	Highlight         Highlight       `json:"highlight"`
	// ScrollTarget is set once the scroll delay has passed and the client
	// should bring the highlighted entity into view.
	ScrollTarget      *Highlight      `json:"scrollTarget"`
	Width             int             `json:"width"`
	CityColumns       int             `json:"cityColumns"`
	FlightColumns     int             `json:"flightColumns"`
}

type Options struct {
	ScrollDelay       time.Duration
	HighlightDuration time.Duration
}

// Coordinator tracks expand/collapse, the transient highlight and the grid
// layout of one results view.
type Coordinator struct {
	mu    sync.Mutex
	state State
	sched *schedule.Scheduler
	opts  Options
}

func New(sched *schedule.Scheduler, opts Options) *Coordinator {
	if opts.ScrollDelay <= 0 {
		opts.ScrollDelay = DefaultScrollDelay
	}
	if opts.HighlightDuration <= 0 {
		opts.HighlightDuration = DefaultHighlightDuration
	}

	return &Coordinator{
		state: State{
			ExpandedCountries: make(map[string]bool),
			ExpandedCities:    make(map[string]bool),
			CityColumns:       Columns(0, CityBreakpoints),
			FlightColumns:     Columns(0, FlightBreakpoints),
		},
		sched: sched,
		opts:  opts,
	}
}

// ToggleCountry flips a country and returns its new expanded state.
func (c *Coordinator) ToggleCountry(country string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.ExpandedCountries[country] = !c.state.ExpandedCountries[country]
	return c.state.ExpandedCountries[country]
}

func (c *Coordinator) ToggleCity(city string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.ExpandedCities[city] = !c.state.ExpandedCities[city]
	return c.state.ExpandedCities[city]
}

// Reveal opens the country (and the city when a flight is targeted), sets
// the highlight, schedules the scroll and clears the highlight later. A new
// reveal supersedes any pending scroll or clear from an earlier one.
func (c *Coordinator) Reveal(country, city, flightID string) {
	c.mu.Lock()
	c.state.ExpandedCountries[country] = true
	if city != "" && flightID != "" {
		c.state.ExpandedCities[city] = true
	}
	h := Highlight{Country: optional(country), City: optional(city), FlightID: optional(flightID)}
	c.state.Highlight = h
	c.state.ScrollTarget = nil
	c.mu.Unlock()

	c.sched.After(scrollTask, c.opts.ScrollDelay, func() {
		c.mu.Lock()
		c.state.ScrollTarget = &h
		c.mu.Unlock()
	})
	c.sched.After(clearTask, c.opts.HighlightDuration, func() {
		c.mu.Lock()
		c.state.Highlight = Highlight{}
		c.state.ScrollTarget = nil
		c.mu.Unlock()
	})
}

// Resize recomputes grid columns for a viewport width.
func (c *Coordinator) Resize(width int) (cityColumns, flightColumns int) {
	if width < 0 {
		width = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Width = width
	c.state.CityColumns = Columns(width, CityBreakpoints)
	c.state.FlightColumns = Columns(width, FlightBreakpoints)
	return c.state.CityColumns, c.state.FlightColumns
}

// Snapshot returns a deep copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if c.state.ScrollTarget != nil {
		target := *c.state.ScrollTarget
		s.ScrollTarget = &target
	}
	s.ExpandedCountries = make(map[string]bool, len(c.state.ExpandedCountries))
	for k, v := range c.state.ExpandedCountries {
		s.ExpandedCountries[k] = v
	}
	s.ExpandedCities = make(map[string]bool, len(c.state.ExpandedCities))
	for k, v := range c.state.ExpandedCities {
		s.ExpandedCities[k] = v
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
