package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightdeals/internal/airports"
	"github.com/dharmasatrya/flightdeals/internal/cache"
	"github.com/dharmasatrya/flightdeals/internal/dates"
	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/presentation"
	"github.com/dharmasatrya/flightdeals/internal/stream"
	"github.com/dharmasatrya/flightdeals/internal/upstream"
)

const DefaultSessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("search session not found")

type Config struct {
	Opener       Opener
	Cache        cache.Cache
	Logger       *slog.Logger
	SessionTTL   time.Duration
	RemovalDelay time.Duration
	Presentation presentation.Options
	// Now is used to resolve weekend date windows.
	Now func() time.Time
}

// UpstreamOpener streams searches from the upstream flight service.
func UpstreamOpener(client *upstream.Client) Opener {
	return func(ctx context.Context, params models.SearchParams) *stream.Channel {
		return stream.Open(ctx, client.HTTPClient(), client.SearchURL(params))
	}
}

// Manager owns every live search session.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config) *Manager {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNoOpCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.RemovalDelay <= 0 {
		cfg.RemovalDelay = filter.DefaultRemovalDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Prepare validates params and resolves the date window of weekend trips.
func (m *Manager) Prepare(params models.SearchParams) (models.SearchParams, error) {
	origins := make([]string, len(params.OriginAirports))
	for i, code := range params.OriginAirports {
		origins[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	params.OriginAirports = origins
	if err := params.Validate(); err != nil {
		return params, err
	}
	for _, code := range params.OriginAirports {
		if !airports.Known(code) {
			return params, models.ErrUnknownAirport
		}
	}
	return dates.ResolveWindow(params, m.cfg.Now()), nil
}

// Create registers a new session and starts its search.
func (m *Manager) Create(params models.SearchParams) (*Session, error) {
	params, err := m.Prepare(params)
	if err != nil {
		return nil, err
	}

	s := newSession(m.ctx, uuid.NewString(), sessionOptions{
		opener:       m.cfg.Opener,
		cache:        m.cfg.Cache,
		logger:       m.cfg.Logger,
		removalDelay: m.cfg.RemovalDelay,
		presentation: m.cfg.Presentation,
	})

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	s.Start(params)
	return s, nil
}

// Restart submits new params to an existing session, replacing its search.
func (m *Manager) Restart(id string, params models.SearchParams) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	params, err = m.Prepare(params)
	if err != nil {
		return nil, err
	}
	s.Start(params)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than the session TTL and returns how
// many were removed.
func (m *Manager) Reap(now time.Time) int {
	var stale []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.cfg.SessionTTL {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.cfg.Logger.Info("reaped idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run reaps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Reap(now)
		}
	}
}

// Close stops every session and cancels all open streams.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	m.cancel()
	for _, s := range sessions {
		s.Close()
	}
}
