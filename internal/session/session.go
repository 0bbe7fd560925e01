package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/roulette-spin-go/internal/engine"
	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/settle"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// MsgGoodLuck is shown while the wheel spins.
const MsgGoodLuck = "Good luck!"

// IndicatorAtRest is the centre indicator text while the wheel is stopped.
const IndicatorAtRest = "SPIN"

// Options configures a new session.
type Options struct {
	Ledger             ledger.Config
	FPS                int
	ReshuffleEachRound bool

	// Source drives the shuffle and the spin velocity. When Seeds is set the
	// provably-fair streams are used instead. Nil with no Seeds picks a
	// crypto-seeded source.
	Source engine.Source
	Seeds  *engine.Seeds
}

// Session is the whole state of one game: sector table, wheel, ledger and
// random source. Every intent is serialised by the session mutex.
type Session struct {
	mu      sync.Mutex
	id      string
	created time.Time

	opts    Options
	src     engine.Source
	seeds   *engine.Seeds
	nonce   uint64
	sectors []wheel.Sector
	physics *wheel.Physics
	ledger  *ledger.Ledger

	message string
	round   int
	stats   Stats

	frames hub
}

// New starts a session with a fresh sector table and no selection.
func New(opts Options) *Session {
	if opts.Ledger == (ledger.Config{}) {
		opts.Ledger = ledger.DefaultConfig()
	}

	s := &Session{
		id:      uuid.NewString(),
		created: time.Now().UTC(),
		opts:    opts,
		src:     opts.Source,
		physics: wheel.NewPhysics(wheel.DefaultSectorCount, opts.FPS),
		ledger:  ledger.New(opts.Ledger),
	}
	if opts.Seeds != nil {
		seeds := *opts.Seeds
		s.seeds = &seeds
		s.nonce = seeds.Nonce
	} else if s.src == nil {
		s.src = engine.NewCrypto()
	}

	s.sectors = wheel.Generate(wheel.DefaultSectorCount, s.tableSource())
	s.stats = newStats(opts.Ledger.StartBalance)
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.created }

func (s *Session) tableSource() engine.Source {
	if s.seeds != nil {
		return engine.TableSource(*s.seeds, s.nonce)
	}
	return s.src
}

func (s *Session) spinSource() engine.Source {
	if s.seeds != nil {
		return engine.SpinSource(*s.seeds, s.nonce)
	}
	return s.src
}

// AdjustBet moves the bet one increment up (dir > 0) or down (dir < 0).
func (s *Session) AdjustBet(dir int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := s.opts.Ledger.Increment
	if dir < 0 {
		step = -step
	}
	s.apply(s.ledger.AdjustBet(step))
	return s.snapshotLocked()
}

// SelectColor bets on red or black.
func (s *Session) SelectColor(c wheel.Color) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(s.ledger.SelectColor(c))
	return s.snapshotLocked()
}

// SelectNumber bets on a single number.
func (s *Session) SelectNumber(n int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(s.ledger.SelectNumber(n))
	return s.snapshotLocked()
}

// ResetSelection clears the selection. It is ignored while a spin is in
// flight so a committed bet always settles.
func (s *Session) ResetSelection() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.physics.State() == wheel.Spinning {
		s.message = string(ledger.RejectBetLocked)
		return s.snapshotLocked()
	}
	s.ledger.ResetSelection()
	if !s.ledger.GameOver() {
		s.message = ""
	}
	return s.snapshotLocked()
}

// RequestSpin commits the bet and kicks the wheel.
func (s *Session) RequestSpin() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.physics.State() == wheel.Spinning {
		s.message = string(ledger.RejectSpinInFlight)
		return s.snapshotLocked()
	}
	if r := s.ledger.CommitBet(); !r.OK() {
		s.message = string(r)
		return s.snapshotLocked()
	}
	s.physics.Spin(s.spinSource())
	s.message = MsgGoodLuck
	return s.snapshotLocked()
}

// Reshuffle generates a new sector table between rounds.
func (s *Session) Reshuffle() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.physics.State() == wheel.Spinning || s.ledger.Placed() {
		s.message = string(ledger.RejectSpinInFlight)
		return s.snapshotLocked()
	}
	s.sectors = wheel.Generate(wheel.DefaultSectorCount, s.tableSource())
	return s.snapshotLocked()
}

// Tick advances the wheel one frame. The frame carries an Outcome exactly
// once per spin, on the tick the wheel comes to rest.
func (s *Session) Tick() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, stopped := s.physics.Tick()
	frame := s.frameLocked(idx)
	if !stopped || !s.ledger.Placed() {
		return frame
	}

	res := settle.Round(s.ledger, s.sectors[idx])
	s.round++
	s.stats.record(res)
	s.message = res.Message

	out := &Outcome{
		Round:  s.round,
		Result: res,
	}
	if s.seeds != nil {
		nonce := s.nonce
		out.Nonce = &nonce
		out.ServerSeedHash = s.seeds.Hash()
		out.ClientSeed = s.seeds.Client
		s.nonce++
	}
	if s.opts.ReshuffleEachRound && !s.ledger.GameOver() {
		s.sectors = wheel.Generate(wheel.DefaultSectorCount, s.tableSource())
	}
	out.Snapshot = s.snapshotLocked()
	frame.Outcome = out
	return frame
}

// Sectors returns a copy of the current table.
func (s *Session) Sectors() []wheel.Sector {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]wheel.Sector, len(s.sectors))
	copy(out, s.sectors)
	return out
}

// Snapshot returns the UI-facing state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Stats returns the running statistics.
func (s *Session) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.snapshot(s.ledger.Balance())
}

// Driven reports whether a Drive call is ticking the session.
func (s *Session) Driven() bool {
	return s.frames.driven()
}

// Spinning reports whether the wheel is moving.
func (s *Session) Spinning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.physics.State() == wheel.Spinning
}

func (s *Session) apply(r ledger.Rejection) {
	if r.OK() {
		s.message = ""
		return
	}
	s.message = string(r)
}

func (s *Session) indicatorLocked(idx int) string {
	if s.physics.State() == wheel.AtRest {
		return IndicatorAtRest
	}
	return s.sectors[idx].Label
}

func (s *Session) frameLocked(idx int) Frame {
	return Frame{
		Angle:     s.physics.Angle(),
		Velocity:  s.physics.Velocity(),
		State:     s.physics.State(),
		Pointer:   s.sectors[idx],
		Indicator: s.indicatorLocked(idx),
	}
}

func (s *Session) snapshotLocked() Snapshot {
	idx := s.physics.Pointer()
	l := s.ledger
	atRest := s.physics.State() == wheel.AtRest

	snap := Snapshot{
		ID:              s.id,
		Balance:         l.Balance(),
		BetAmount:       l.Bet(),
		MinBet:          s.opts.Ledger.MinBet,
		Increment:       s.opts.Ledger.Increment,
		Selection:       l.Selection(),
		Description:     l.Describe(),
		Message:         s.message,
		BetEnabled:      !l.Placed() && !l.GameOver(),
		IncreaseEnabled: l.IncreaseEnabled(),
		DecreaseEnabled: l.DecreaseEnabled(),
		SpinEnabled:     atRest && l.CanSpin(),
		BetPlaced:       l.Placed(),
		GameOver:        l.GameOver(),
		State:           s.physics.State(),
		Angle:           s.physics.Angle(),
		Pointer:         s.sectors[idx],
		Indicator:       s.indicatorLocked(idx),
		Round:           s.round,
	}
	if s.seeds != nil {
		snap.Fairness = &Fairness{
			ServerSeedHash: s.seeds.Hash(),
			ClientSeed:     s.seeds.Client,
			Nonce:          s.nonce,
		}
	}
	return snap
}

// selectionValue renders the chosen colour or number for the journal.
func selectionValue(sel ledger.Selection) string {
	switch sel.Kind {
	case ledger.ColorBet:
		return sel.Color.String()
	case ledger.NumberBet:
		return strconv.Itoa(sel.Number)
	}
	return ""
}
