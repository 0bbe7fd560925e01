package settle

import (
	"fmt"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// Net payout ratios.
const (
	ColorPayout  = 1
	NumberPayout = 35
)

const (
	MsgLoss     = "Sorry, you lost!"
	MsgGameOver = "Game Over! You are out of money."
)

// Result is the outcome of one settled round.
type Result struct {
	Sector     wheel.Sector     `json:"sector"`
	Selection  ledger.Selection `json:"selection"`
	Bet        int              `json:"bet"`
	Balance    int              `json:"balance"`
	NewBalance int              `json:"new_balance"`
	// Winnings is the net gain on a win, zero otherwise.
	Winnings int    `json:"winnings"`
	Win      bool   `json:"win"`
	Settled  bool   `json:"settled"`
	GameOver bool   `json:"game_over"`
	Message  string `json:"message"`
}

// Delta is the signed balance change.
func (r Result) Delta() int {
	return r.NewBalance - r.Balance
}

// Settle resolves a selection against the terminal sector. A None selection
// settles nothing and returns the balance unchanged.
func Settle(sector wheel.Sector, sel ledger.Selection, bet, balance int) Result {
	r := Result{
		Sector:     sector,
		Selection:  sel,
		Bet:        bet,
		Balance:    balance,
		NewBalance: balance,
	}

	switch sel.Kind {
	case ledger.ColorBet:
		r.Settled = true
		if sel.Color == sector.Color {
			r.Win = true
			r.Winnings = bet * ColorPayout
			r.Message = fmt.Sprintf("Congratulations! You won $%d on %s!", r.Winnings, sector.Color)
		}
	case ledger.NumberBet:
		r.Settled = true
		if sel.Number == sector.Number {
			r.Win = true
			r.Winnings = bet * NumberPayout
			r.Message = fmt.Sprintf("JACKPOT! You won $%d on number %d!", r.Winnings, sector.Number)
		}
	default:
		return r
	}

	if r.Win {
		r.NewBalance = balance + r.Winnings
	} else {
		r.NewBalance = balance - bet
		r.Message = MsgLoss
	}

	if r.NewBalance <= 0 {
		r.NewBalance = 0
		r.GameOver = true
		r.Message = MsgGameOver
	}
	return r
}

// Apply writes a result into the ledger: new balance, bet lowered to fit
// and selection cleared for the next round.
func Apply(l *ledger.Ledger, r Result) {
	if r.Settled {
		l.SetBalance(r.NewBalance)
		l.LowerBetToBalance()
	}
	l.ResetSelection()
}

// Round settles the ledger's committed bet against sector and applies it.
func Round(l *ledger.Ledger, sector wheel.Sector) Result {
	r := Settle(sector, l.Selection(), l.Bet(), l.Balance())
	Apply(l, r)
	return r
}
