package ledger

import (
	"errors"
	"fmt"

	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

const (
	DefaultStartBalance = 1000
	DefaultStartBet     = 5
	DefaultMinBet       = 5
	DefaultIncrement    = 5
)

// Rejection is the status text shown when an intent is refused. The empty
// Rejection means the intent was accepted.
type Rejection string

const (
	Accepted            Rejection = ""
	RejectNoSelection   Rejection = "Please select a bet type (Red/Black or Number)!"
	RejectInvalidAmount Rejection = "Invalid bet amount or insufficient funds!"
	RejectSpinInFlight  Rejection = "Wait for the wheel to stop!"
	RejectBetLocked     Rejection = "Bets are locked until the wheel stops!"
	RejectGameOver      Rejection = "Game Over! You are out of money."
	RejectInvalidNumber Rejection = "Pick a number between 1 and 36!"
)

func (r Rejection) OK() bool { return r == Accepted }

// Config holds the table limits.
type Config struct {
	StartBalance int `yaml:"start_balance" validate:"gt=0"`
	StartBet     int `yaml:"start_bet" validate:"gt=0"`
	MinBet       int `yaml:"min_bet" validate:"gt=0"`
	Increment    int `yaml:"increment" validate:"gt=0"`
}

// DefaultConfig returns the standard table.
func DefaultConfig() Config {
	return Config{
		StartBalance: DefaultStartBalance,
		StartBet:     DefaultStartBet,
		MinBet:       DefaultMinBet,
		Increment:    DefaultIncrement,
	}
}

// ErrInvalidTable is returned by Config.Validate.
var ErrInvalidTable = errors.New("invalid table limits")

// Validate checks that every balance a session can reach is either zero or
// at least MinBet. That holds when the start balance, the start bet and the
// increment are all multiples of MinBet, so a losing round can never leave
// a remainder too small to bet.
func (c Config) Validate() error {
	switch {
	case c.MinBet <= 0 || c.Increment <= 0:
		return fmt.Errorf("%w: min_bet %d and increment %d must be positive", ErrInvalidTable, c.MinBet, c.Increment)
	case c.Increment%c.MinBet != 0:
		return fmt.Errorf("%w: increment %d is not a multiple of min_bet %d", ErrInvalidTable, c.Increment, c.MinBet)
	case c.StartBalance < c.MinBet || c.StartBalance%c.MinBet != 0:
		return fmt.Errorf("%w: start_balance %d must be a positive multiple of min_bet %d", ErrInvalidTable, c.StartBalance, c.MinBet)
	case c.StartBet < c.MinBet || c.StartBet%c.MinBet != 0:
		return fmt.Errorf("%w: start_bet %d must be a positive multiple of min_bet %d", ErrInvalidTable, c.StartBet, c.MinBet)
	case c.StartBet > c.StartBalance:
		return fmt.Errorf("%w: start_bet %d above start_balance %d", ErrInvalidTable, c.StartBet, c.StartBalance)
	}
	return nil
}

// WithStartBalance returns c starting at balance, with the start bet
// lowered to fit it.
func (c Config) WithStartBalance(balance int) Config {
	c.StartBalance = balance
	c.StartBet = min(c.StartBet, balance)
	return c
}

// Ledger owns the balance, the bet amount and the single active selection.
// It is not safe for concurrent use; the owning session serialises access.
type Ledger struct {
	cfg       Config
	balance   int
	bet       int
	selection Selection
	placed    bool
	over      bool
}

// New returns a ledger with no selection.
func New(cfg Config) *Ledger {
	return &Ledger{
		cfg:     cfg,
		balance: cfg.StartBalance,
		bet:     cfg.StartBet,
	}
}

func (l *Ledger) Balance() int         { return l.balance }
func (l *Ledger) Bet() int             { return l.bet }
func (l *Ledger) Selection() Selection { return l.selection }
func (l *Ledger) Placed() bool         { return l.placed }
func (l *Ledger) GameOver() bool       { return l.over }
func (l *Ledger) Config() Config       { return l.cfg }

// AdjustBet moves the bet by delta and silently clamps it to
// [MinBet, balance]. Adjustments are ignored while a bet is placed or the
// game is over.
func (l *Ledger) AdjustBet(delta int) Rejection {
	if l.over {
		return RejectGameOver
	}
	if l.placed {
		return RejectBetLocked
	}

	next := l.bet + delta
	if delta > 0 && next > l.balance {
		next = l.balance
	}
	switch {
	case next >= l.cfg.MinBet && next <= l.balance:
		l.bet = next
	case next < l.cfg.MinBet:
		l.bet = l.cfg.MinBet
	}
	return Accepted
}

// SelectColor replaces any selection with a colour bet.
func (l *Ledger) SelectColor(c wheel.Color) Rejection {
	if r := l.selectable(); !r.OK() {
		return r
	}
	l.selection = OnColor(c)
	return Accepted
}

// SelectNumber replaces any selection with a number bet on n.
func (l *Ledger) SelectNumber(n int) Rejection {
	if r := l.selectable(); !r.OK() {
		return r
	}
	if n < 1 || n > wheel.DefaultSectorCount {
		return RejectInvalidNumber
	}
	l.selection = OnNumber(n)
	return Accepted
}

func (l *Ledger) selectable() Rejection {
	if l.over {
		return RejectGameOver
	}
	if l.placed {
		return RejectBetLocked
	}
	return Accepted
}

// CanSpin reports whether CommitBet would succeed.
func (l *Ledger) CanSpin() bool {
	return !l.selection.IsNone() &&
		l.bet <= l.balance &&
		l.bet > 0 &&
		!l.placed &&
		!l.over
}

// CommitBet marks the bet as placed for the coming spin.
func (l *Ledger) CommitBet() Rejection {
	switch {
	case l.over:
		return RejectGameOver
	case l.placed:
		return RejectSpinInFlight
	case l.selection.IsNone():
		return RejectNoSelection
	case l.bet > l.balance || l.bet <= 0:
		return RejectInvalidAmount
	}
	l.placed = true
	return Accepted
}

// ResetSelection clears the selection and the placed flag.
func (l *Ledger) ResetSelection() {
	l.selection = Selection{}
	l.placed = false
}

// SetBalance records a settled balance. A balance at or below zero is
// clamped to zero and ends the game for good.
func (l *Ledger) SetBalance(balance int) {
	if balance <= 0 {
		l.balance = 0
		l.over = true
		return
	}
	l.balance = balance
}

// LowerBetToBalance brings the bet down to max(balance, MinBet) when it no
// longer fits. The bet is never raised again when the balance recovers.
func (l *Ledger) LowerBetToBalance() {
	if l.over || l.bet <= l.balance {
		return
	}
	l.bet = max(l.balance, l.cfg.MinBet)
}

// Describe renders "<selection>, Bet: $<amount>".
func (l *Ledger) Describe() string {
	return fmt.Sprintf("%s, Bet: $%d", l.selection.Describe(), l.bet)
}

// IncreaseEnabled reports whether the bet can still go up.
func (l *Ledger) IncreaseEnabled() bool {
	return !l.over && !l.placed && l.bet < l.balance
}

// DecreaseEnabled reports whether the bet can still go down.
func (l *Ledger) DecreaseEnabled() bool {
	return !l.over && !l.placed && l.bet > l.cfg.MinBet
}
