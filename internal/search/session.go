package search

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/cache"
	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/presentation"
	"github.com/dharmasatrya/flightdeals/internal/pricing"
	"github.com/dharmasatrya/flightdeals/internal/schedule"
	"github.com/dharmasatrya/flightdeals/internal/stream"
	"github.com/dharmasatrya/flightdeals/internal/view"
)

type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// User-facing messages shown when a search ends without results.
const (
	MsgNoFlights       = "no flights found"
	MsgConnectionLost  = "connection lost"
	MsgProcessingError = "error processing flight data"
)

// Opener starts the upstream stream for params.
type Opener func(ctx context.Context, params models.SearchParams) *stream.Channel

type Status struct {
	ID          string               `json:"id"`
	State       State                `json:"state"`
	Loading     bool                 `json:"loading"`
	NoFlights   bool                 `json:"noFlights"`
	Error       string               `json:"error,omitempty"`
	FlightCount int                  `json:"flightCount"`
	Params      *models.SearchParams `json:"params,omitempty"`
}

type pricedFlight struct {
	flight models.Flight
	total  float64
}

// Session is one client's search: the ingest state machine plus the filter,
// sort and presentation state layered on top of its flights.
type Session struct {
	id     string
	ctx    context.Context
	opener Opener
	cache  cache.Cache
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	params     *models.SearchParams
	flights    []pricedFlight
	version    uint64
	loading    bool
	noFlights  bool
	errMsg     string
	channel    *stream.Channel
	gen        uint64
	lastAccess time.Time
	closed     bool
	applied    filter.Filters

	sched        *schedule.Scheduler
	filters      *filter.Controller
	presentation *presentation.Coordinator
	memo         view.Memo
}

type sessionOptions struct {
	opener       Opener
	cache        cache.Cache
	logger       *slog.Logger
	removalDelay time.Duration
	presentation presentation.Options
}

func newSession(ctx context.Context, id string, opts sessionOptions) *Session {
	s := &Session{
		id:         id,
		ctx:        ctx,
		opener:     opts.opener,
		cache:      opts.cache,
		logger:     opts.logger.With("session", id),
		state:      StateIdle,
		sched:      schedule.New(),
		lastAccess: time.Now(),
	}
	s.filters = filter.NewController(s.sched, opts.removalDelay, s.filtersChanged)
	s.presentation = presentation.New(s.sched, opts.presentation)
	return s
}

// filtersChanged records the filters the view is derived from. It runs the
// moment a filter changes, ahead of any delayed UI removal.
func (s *Session) filtersChanged(f filter.Filters) {
	s.mu.Lock()
	s.applied = f
	s.mu.Unlock()
	s.logger.Debug("filters changed", "active", f.Active(), "key", f.Key())
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Filters() *filter.Controller {
	return s.filters
}

func (s *Session) Presentation() *presentation.Coordinator {
	return s.presentation
}

// Start replaces the current search with params. Any open stream is closed
// before the new one is opened, so a stale stream never delivers into the
// new search. params must already be validated and date-resolved.
func (s *Session) Start(params models.SearchParams) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prev := s.channel
	s.channel = nil
	s.gen++
	gen := s.gen
	s.params = &params
	s.flights = nil
	s.version++
	s.state = StateStreaming
	s.loading = true
	s.noFlights = false
	s.errMsg = ""
	s.lastAccess = time.Now()
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	if cached, ok := s.cache.Get(s.ctx, params); ok && len(cached) > 0 {
		s.mu.Lock()
		if gen == s.gen {
			for _, f := range cached {
				s.insertLocked(f)
			}
			s.version++
			s.finishLocked(StateCompleted, "")
			s.logger.Info("search served from cache", "flights", len(cached))
		}
		s.mu.Unlock()
		return
	}

	ch := s.opener(s.ctx, params)

	s.mu.Lock()
	if gen != s.gen {
		// superseded while opening
		s.mu.Unlock()
		ch.Close()
		return
	}
	s.channel = ch
	s.mu.Unlock()

	s.logger.Info("search started", "tripType", params.TripType, "origins", params.OriginAirports)
	go s.consume(gen, ch)
}

func (s *Session) consume(gen uint64, ch *stream.Channel) {
	for msg := range ch.Messages() {
		if s.handle(gen, msg) {
			break
		}
	}
	ch.Close()
}

// handle applies one stream message and reports whether the consumer should
// stop reading.
func (s *Session) handle(gen uint64, msg stream.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.state != StateStreaming {
		return true
	}

	switch msg.Kind {
	case stream.FlightReceived:
		s.insertLocked(msg.Flight)
		s.version++
		s.loading = false
		return false

	case stream.StreamEnded:
		s.finishLocked(StateCompleted, "")
		if len(s.flights) == 0 {
			s.noFlights = true
		} else {
			s.storeLocked()
		}
		s.logger.Info("search completed", "flights", len(s.flights))

	case stream.NoFlights:
		if len(s.flights) > 0 {
			s.flights = nil
			s.version++
		}
		s.finishLocked(StateCompleted, "")
		s.noFlights = true
		s.logger.Info("search completed", "flights", 0)

	case stream.TransportError:
		if len(s.flights) > 0 {
			// the server closing after delivering results is a normal end,
			// but the list may be truncated so it is not cached
			s.finishLocked(StateCompleted, "")
			s.logger.Info("search completed", "flights", len(s.flights), "reason", msg.Err)
		} else {
			s.finishLocked(StateFailed, MsgConnectionLost)
			s.logger.Warn("search failed", "error", msg.Err)
		}

	case stream.PayloadError:
		s.finishLocked(StateFailed, MsgProcessingError)
		s.logger.Warn("search failed", "error", msg.Err, "flights", len(s.flights))
	}

	return true
}

func (s *Session) finishLocked(state State, errMsg string) {
	s.state = state
	s.loading = false
	s.errMsg = errMsg
	s.channel = nil
}

// insertLocked keeps flights ordered by total price, earlier arrivals first
// among equal prices.
func (s *Session) insertLocked(f models.Flight) {
	total := pricing.FlightTotal(f, s.params.Passengers, s.params.TripType)
	s.flights = append(s.flights, pricedFlight{flight: f, total: total})
	sort.SliceStable(s.flights, func(i, j int) bool {
		return s.flights[i].total < s.flights[j].total
	})
}

func (s *Session) storeLocked() {
	params := *s.params
	flights := s.flightsLocked()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, params, flights); err != nil {
			s.logger.Warn("failed to cache search", "error", err)
		}
	}()
}

func (s *Session) flightsLocked() []models.Flight {
	out := make([]models.Flight, len(s.flights))
	for i, pf := range s.flights {
		out[i] = pf.flight
	}
	return out
}

// Flights returns the accumulated flights, cheapest first.
func (s *Session) Flights() []models.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flightsLocked()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:          s.id,
		State:       s.state,
		Loading:     s.loading,
		NoFlights:   s.noFlights,
		Error:       s.errMsg,
		FlightCount: len(s.flights),
	}
	if s.params != nil {
		p := *s.params
		st.Params = &p
	}
	return st
}

// View returns the grouped, filtered and sorted results. An empty sortKey
// uses the session's current sort order.
func (s *Session) View(sortKey models.SortKey) models.ViewModel {
	if sortKey == "" {
		sortKey = s.filters.Sort()
	}
	s.mu.Lock()
	filters := s.applied
	version := s.version
	params := s.params
	flights := s.flightsLocked()
	s.mu.Unlock()

	return s.memo.Get(version, flights, params, filters, sortKey)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Close stops the stream and every pending timer. A closed session ignores
// further Start calls.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	ch := s.channel
	s.channel = nil
	if s.state == StateStreaming {
		s.state = StateIdle
		s.loading = false
	}
	s.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	s.sched.Close()
}
