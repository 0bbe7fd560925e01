package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MJE43/roulette-spin-go/internal/engine"
	"github.com/MJE43/roulette-spin-go/internal/events"
	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/logger"
	"github.com/MJE43/roulette-spin-go/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	// ErrSessionDriven is returned by manual ticks while Drive owns the
	// session's frame loop.
	ErrSessionDriven = errors.New("session is being driven")
)

// ManagerConfig sets defaults for new sessions and the idle eviction.
type ManagerConfig struct {
	Defaults        Options
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	// MaxSessions caps live sessions; 0 means unlimited.
	MaxSessions int
	// FrameInterval overrides the Drive tick period, which defaults to one
	// frame at Defaults.FPS. Physics always advances one frame per tick.
	FrameInterval time.Duration
}

// CreateOptions overrides the defaults for one session.
type CreateOptions struct {
	Seeds *engine.Seeds
	// StartBalance must be a positive multiple of the table's min bet.
	StartBalance int
	Source       engine.Source
}

// Manager owns independent sessions keyed by id. Idle sessions expire.
type Manager struct {
	cfg       ManagerConfig
	sessions  *cache.Cache
	journal   store.Journal
	publisher events.Publisher
	log       *slog.Logger

	createMu sync.Mutex
}

// NewManager builds a manager. journal and publisher may be nil.
func NewManager(cfg ManagerConfig, journal store.Journal, publisher events.Publisher) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	m := &Manager{
		cfg:       cfg,
		sessions:  cache.New(cfg.IdleTTL, cfg.CleanupInterval),
		journal:   journal,
		publisher: publisher,
		log:       logger.With("component", "session"),
	}
	m.sessions.OnEvicted(func(id string, _ interface{}) {
		m.log.Debug("session evicted", "session", id)
	})
	return m
}

// Create starts a new session.
func (m *Manager) Create(opts CreateOptions) (*Session, error) {
	m.createMu.Lock()
	defer m.createMu.Unlock()

	if m.cfg.MaxSessions > 0 && m.sessions.ItemCount() >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	o := m.cfg.Defaults
	if o.Ledger == (ledger.Config{}) {
		o.Ledger = ledger.DefaultConfig()
	}
	if opts.StartBalance != 0 {
		o.Ledger = o.Ledger.WithStartBalance(opts.StartBalance)
	}
	if err := o.Ledger.Validate(); err != nil {
		return nil, err
	}
	if opts.Seeds != nil {
		o.Seeds = opts.Seeds
		o.Source = nil
	} else if opts.Source != nil {
		o.Source = opts.Source
	} else {
		// Sessions must not share one source.
		o.Source = nil
	}

	s := New(o)
	m.sessions.SetDefault(s.ID(), s)
	m.log.Info("session created", "session", s.ID(), "fair", s.seeds != nil)
	return s, nil
}

// Get returns a session and extends its idle deadline.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	m.sessions.SetDefault(id, v)
	return v.(*Session), nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	if _, ok := m.sessions.Get(id); !ok {
		return ErrSessionNotFound
	}
	m.sessions.Delete(id)
	return nil
}

// List returns live session ids in sorted order.
func (m *Manager) List() []string {
	items := m.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}

// Table returns the limits new sessions start with.
func (m *Manager) Table() ledger.Config {
	if m.cfg.Defaults.Ledger == (ledger.Config{}) {
		return ledger.DefaultConfig()
	}
	return m.cfg.Defaults.Ledger
}

// Journal returns the round journal, which may be nil.
func (m *Manager) Journal() store.Journal {
	return m.journal
}

// FPS is the frame rate sessions are ticked at.
func (m *Manager) FPS() int {
	if m.cfg.Defaults.FPS <= 0 {
		return 60
	}
	return m.cfg.Defaults.FPS
}

// FrameInterval is the wall-clock period between driven ticks.
func (m *Manager) FrameInterval() time.Duration {
	if m.cfg.FrameInterval > 0 {
		return m.cfg.FrameInterval
	}
	return time.Second / time.Duration(m.FPS())
}

// Tick advances the session one frame for clients that run their own frame
// loop. It fails with ErrSessionDriven while a Drive call ticks the session.
func (m *Manager) Tick(ctx context.Context, id string) (Frame, error) {
	s, err := m.Get(id)
	if err != nil {
		return Frame{}, err
	}
	if s.Driven() {
		return Frame{}, ErrSessionDriven
	}
	return m.tick(ctx, s), nil
}

// tick advances s one frame, records the round when it settles and hands
// the frame to every Drive subscriber.
func (m *Manager) tick(ctx context.Context, s *Session) Frame {
	frame := s.Tick()
	if frame.Outcome != nil {
		m.Record(ctx, s.ID(), *frame.Outcome)
	}
	s.frames.publish(frame)
	return frame
}

// Record writes a settled round to the journal and publishes it. Failures
// are logged only; they never change the game.
func (m *Manager) Record(ctx context.Context, id string, out Outcome) {
	round := out.Record(id)
	log := m.log.With("session", id, "round", out.Round)

	if m.journal != nil {
		if err := m.journal.RecordRound(ctx, &round); err != nil {
			log.Error("journal write failed", "error", err)
		}
	}
	if err := m.publisher.PublishRound(ctx, round); err != nil {
		log.Warn("publish round failed", "error", err)
	}

	log.Info("round settled",
		"number", round.Number,
		"color", round.Color,
		"bet", round.Bet,
		"win", round.Win,
		"balance", round.BalanceAfter,
	)
	if round.GameOver {
		log.Info("session game over")
	}
}

// Close releases the journal and publisher.
func (m *Manager) Close() error {
	m.publisher.Close()
	if m.journal != nil {
		return m.journal.Close()
	}
	return nil
}
