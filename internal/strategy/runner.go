package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/logger"
	"github.com/MJE43/roulette-spin-go/internal/session"
)

// Reasons a run ends.
const (
	StopGameOver  = "game_over"
	StopMaxRounds = "max_rounds"
	StopStrategy  = "strategy"
	StopRejected  = "rejected"
	StopCancelled = "cancelled"
)

// Report summarises a finished run.
type Report struct {
	Strategy     string                `json:"strategy"`
	Rounds       int                   `json:"rounds"`
	StartBalance int                   `json:"start_balance"`
	Balance      int                   `json:"balance"`
	GameOver     bool                  `json:"game_over"`
	StopReason   string                `json:"stop_reason"`
	Message      string                `json:"message,omitempty"`
	Stats        session.StatsSnapshot `json:"stats"`
}

// Runner plays sessions owned by a manager, so every round it settles is
// journaled and published like a manual one.
type Runner struct {
	manager *session.Manager
	log     *slog.Logger

	// OnRound, when set, is called after every settled round.
	OnRound func(out session.Outcome)
}

func NewRunner(m *session.Manager) *Runner {
	return &Runner{manager: m, log: logger.With("component", "strategy")}
}

// Run plays up to maxRounds rounds (0 means until the strategy stops or the
// balance runs out).
func (r *Runner) Run(ctx context.Context, id string, strat Strategy, maxRounds int) (*Report, error) {
	s, err := r.manager.Get(id)
	if err != nil {
		return nil, err
	}

	start := s.Snapshot()
	report := &Report{
		Strategy:     strat.Name(),
		StartBalance: start.Balance,
	}
	log := r.log.With("session", id, "strategy", strat.Name())
	log.Info("autoplay started", "max_rounds", maxRounds)

	var last *Result
	for {
		if err := ctx.Err(); err != nil {
			report.StopReason = StopCancelled
			break
		}
		snap := s.Snapshot()
		if snap.GameOver {
			report.StopReason = StopGameOver
			break
		}
		if maxRounds > 0 && report.Rounds >= maxRounds {
			report.StopReason = StopMaxRounds
			break
		}

		stats := s.Stats()
		d, err := strat.Next(State{
			Balance:   snap.Balance,
			Bet:       snap.BetAmount,
			MinBet:    snap.MinBet,
			Increment: snap.Increment,
			Rounds:    stats.Rounds,
			Wins:      stats.Wins,
			Losses:    stats.Losses,
			Profit:    snap.Balance - report.StartBalance,
			Last:      last,
		})
		if err != nil {
			return report, fmt.Errorf("strategy %s: %w", strat.Name(), err)
		}
		if d.Stop {
			report.StopReason = StopStrategy
			break
		}

		if msg, ok := place(s, d); !ok {
			report.StopReason = StopRejected
			report.Message = msg
			break
		}

		out, err := r.manager.SpinToRest(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				report.StopReason = StopCancelled
				break
			}
			return report, err
		}
		if out == nil {
			report.StopReason = StopRejected
			report.Message = s.Snapshot().Message
			break
		}

		report.Rounds++
		res := out.Result
		last = &Result{
			Number:   res.Sector.Number,
			Color:    res.Sector.Color,
			Bet:      res.Bet,
			Win:      res.Win,
			Winnings: res.Winnings,
		}
		if r.OnRound != nil {
			r.OnRound(*out)
		}
	}

	final := s.Snapshot()
	report.Balance = final.Balance
	report.GameOver = final.GameOver
	report.Stats = s.Stats()
	log.Info("autoplay finished",
		"rounds", report.Rounds,
		"balance", report.Balance,
		"reason", report.StopReason,
	)
	return report, nil
}

// place walks the bet to the decided amount through AdjustBet intents,
// selects and spins. It reports the rejection message when the spin was
// refused.
func place(s *session.Session, d Decision) (string, bool) {
	if d.Amount > 0 {
		steer(s, d.Amount)
	}

	var snap session.Snapshot
	switch d.Selection.Kind {
	case ledger.ColorBet:
		snap = s.SelectColor(d.Selection.Color)
	case ledger.NumberBet:
		snap = s.SelectNumber(d.Selection.Number)
	default:
		return string(ledger.RejectNoSelection), false
	}
	if snap.Message != "" {
		return snap.Message, false
	}

	snap = s.RequestSpin()
	if !s.Spinning() {
		return snap.Message, false
	}
	return "", true
}

// steer moves the bet toward target one increment at a time. The result is
// the largest reachable bet not above target, or the whole balance when
// target exceeds it.
func steer(s *session.Session, target int) {
	snap := s.Snapshot()
	for {
		bet := snap.BetAmount
		var next session.Snapshot
		switch {
		case bet > target && snap.DecreaseEnabled:
			next = s.AdjustBet(-1)
		case bet < target && snap.IncreaseEnabled &&
			(bet+snap.Increment <= target || target >= snap.Balance):
			next = s.AdjustBet(1)
		default:
			return
		}
		if next.BetAmount == bet {
			return
		}
		snap = next
	}
}
