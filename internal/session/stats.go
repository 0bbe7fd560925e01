package session

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-spin-go/internal/settle"
)

var hundred = decimal.NewFromInt(100)

// Stats tracks session-level betting statistics.
type Stats struct {
	startBalance int
	rounds       int
	wins         int
	losses       int
	wagered      decimal.Decimal
	returned     decimal.Decimal
	biggestWin   int

	// Positive = win streak, negative = lose streak.
	streak        int
	longestWin    int
	longestLosing int
}

func newStats(startBalance int) Stats {
	return Stats{startBalance: startBalance}
}

func (st *Stats) record(r settle.Result) {
	if !r.Settled {
		return
	}
	bet := decimal.NewFromInt(int64(r.Bet))
	st.rounds++
	st.wagered = st.wagered.Add(bet)

	if r.Win {
		st.wins++
		st.returned = st.returned.Add(bet).Add(decimal.NewFromInt(int64(r.Winnings)))
		st.biggestWin = max(st.biggestWin, r.Winnings)
		if st.streak < 0 {
			st.streak = 0
		}
		st.streak++
		st.longestWin = max(st.longestWin, st.streak)
		return
	}

	st.losses++
	if st.streak > 0 {
		st.streak = 0
	}
	st.streak--
	st.longestLosing = max(st.longestLosing, -st.streak)
}

// StatsSnapshot is the JSON view of Stats. Monetary values are decimals.
type StatsSnapshot struct {
	Rounds            int             `json:"rounds"`
	Wins              int             `json:"wins"`
	Losses            int             `json:"losses"`
	Wagered           decimal.Decimal `json:"wagered"`
	Returned          decimal.Decimal `json:"returned"`
	Profit            decimal.Decimal `json:"profit"`
	RTP               decimal.Decimal `json:"rtp"`
	WinRate           decimal.Decimal `json:"win_rate"`
	BiggestWin        int             `json:"biggest_win"`
	CurrentStreak     int             `json:"current_streak"`
	LongestWinStreak  int             `json:"longest_win_streak"`
	LongestLossStreak int             `json:"longest_loss_streak"`
	StartBalance      int             `json:"start_balance"`
	Balance           int             `json:"balance"`
}

func (st Stats) snapshot(balance int) StatsSnapshot {
	snap := StatsSnapshot{
		Rounds:            st.rounds,
		Wins:              st.wins,
		Losses:            st.losses,
		Wagered:           st.wagered,
		Returned:          st.returned,
		Profit:            st.returned.Sub(st.wagered),
		RTP:               decimal.Zero,
		WinRate:           decimal.Zero,
		BiggestWin:        st.biggestWin,
		CurrentStreak:     st.streak,
		LongestWinStreak:  st.longestWin,
		LongestLossStreak: st.longestLosing,
		StartBalance:      st.startBalance,
		Balance:           balance,
	}
	if !st.wagered.IsZero() {
		snap.RTP = st.returned.Div(st.wagered).Mul(hundred).Round(2)
	}
	if st.rounds > 0 {
		snap.WinRate = decimal.NewFromInt(int64(st.wins)).
			Div(decimal.NewFromInt(int64(st.rounds))).
			Mul(hundred).
			Round(2)
	}
	return snap
}
