package session

import (
	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/settle"
	"github.com/MJE43/roulette-spin-go/internal/store"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// Snapshot is what the UI layer renders: balance, bet, enablement and the
// status message.
type Snapshot struct {
	ID              string           `json:"id"`
	Balance         int              `json:"balance"`
	BetAmount       int              `json:"bet_amount"`
	MinBet          int              `json:"min_bet"`
	Increment       int              `json:"increment"`
	Selection       ledger.Selection `json:"selection"`
	Description     string           `json:"description"`
	Message         string           `json:"message"`
	BetEnabled      bool             `json:"bet_enabled"`
	IncreaseEnabled bool             `json:"increase_enabled"`
	DecreaseEnabled bool             `json:"decrease_enabled"`
	SpinEnabled     bool             `json:"spin_enabled"`
	BetPlaced       bool             `json:"bet_placed"`
	GameOver        bool             `json:"game_over"`
	State           wheel.State      `json:"state"`
	Angle           float64          `json:"angle"`
	Pointer         wheel.Sector     `json:"pointer"`
	Indicator       string           `json:"indicator"`
	Round           int              `json:"round"`
	Fairness        *Fairness        `json:"fairness,omitempty"`
}

// Fairness identifies the provably-fair stream of the next round.
type Fairness struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
}

// Frame is what the render layer consumes every tick.
type Frame struct {
	Angle     float64      `json:"angle"`
	Velocity  float64      `json:"velocity"`
	State     wheel.State  `json:"state"`
	Pointer   wheel.Sector `json:"pointer"`
	Indicator string       `json:"indicator"`
	Outcome   *Outcome     `json:"outcome,omitempty"`
}

// Outcome is produced by the tick that brings the wheel to rest.
type Outcome struct {
	Round          int           `json:"round"`
	Result         settle.Result `json:"result"`
	Nonce          *uint64       `json:"nonce,omitempty"`
	ServerSeedHash string        `json:"server_seed_hash,omitempty"`
	ClientSeed     string        `json:"client_seed,omitempty"`
	Snapshot       Snapshot      `json:"snapshot"`
}

// Record converts the outcome into a journal row.
func (o Outcome) Record(sessionID string) store.Round {
	r := o.Result
	return store.Round{
		SessionID:      sessionID,
		Round:          o.Round,
		Number:         r.Sector.Number,
		Color:          r.Sector.Color.String(),
		SelectionKind:  r.Selection.Kind.String(),
		SelectionValue: selectionValue(r.Selection),
		Bet:            r.Bet,
		BalanceBefore:  r.Balance,
		BalanceAfter:   r.NewBalance,
		Winnings:       r.Winnings,
		Win:            r.Win,
		GameOver:       r.GameOver,
		Message:        r.Message,
		ServerSeedHash: o.ServerSeedHash,
		ClientSeed:     o.ClientSeed,
		Nonce:          o.Nonce,
	}
}
