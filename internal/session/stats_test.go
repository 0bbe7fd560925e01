package session

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-spin-go/internal/settle"
)

func TestStatsRecord(t *testing.T) {
	st := newStats(1000)
	rounds := []settle.Result{
		{Settled: true, Bet: 10, Win: true, Winnings: 10},
		{Settled: true, Bet: 10, Win: true, Winnings: 350},
		{Settled: true, Bet: 20},
		{Settled: true, Bet: 20},
		{Settled: true, Bet: 20},
		{Settled: false, Bet: 999},
	}
	for _, r := range rounds {
		st.record(r)
	}

	snap := st.snapshot(1300)
	if snap.Rounds != 5 || snap.Wins != 2 || snap.Losses != 3 {
		t.Fatalf("counts = %d/%d/%d, want 5/2/3", snap.Rounds, snap.Wins, snap.Losses)
	}
	if !snap.Wagered.Equal(decimal.NewFromInt(80)) {
		t.Errorf("wagered = %s, want 80", snap.Wagered)
	}
	// Returned stake plus winnings: 20 + 20 + 360.
	if !snap.Returned.Equal(decimal.NewFromInt(380)) {
		t.Errorf("returned = %s, want 380", snap.Returned)
	}
	if !snap.Profit.Equal(decimal.NewFromInt(300)) {
		t.Errorf("profit = %s, want 300", snap.Profit)
	}
	if !snap.RTP.Equal(decimal.NewFromInt(475)) {
		t.Errorf("rtp = %s, want 475", snap.RTP)
	}
	if !snap.WinRate.Equal(decimal.NewFromInt(40)) {
		t.Errorf("win rate = %s, want 40", snap.WinRate)
	}
	if snap.BiggestWin != 350 {
		t.Errorf("biggest win = %d, want 350", snap.BiggestWin)
	}
	if snap.CurrentStreak != -3 || snap.LongestWinStreak != 2 || snap.LongestLossStreak != 3 {
		t.Errorf("streaks = %d/%d/%d, want -3/2/3",
			snap.CurrentStreak, snap.LongestWinStreak, snap.LongestLossStreak)
	}
}

func TestStatsEmpty(t *testing.T) {
	snap := newStats(1000).snapshot(1000)
	if !snap.RTP.IsZero() || !snap.WinRate.IsZero() {
		t.Errorf("empty stats rtp=%s winrate=%s, want zero", snap.RTP, snap.WinRate)
	}
	if snap.StartBalance != 1000 || snap.Balance != 1000 {
		t.Errorf("balances = %d/%d", snap.StartBalance, snap.Balance)
	}
}

func TestWinRateRounding(t *testing.T) {
	st := newStats(100)
	st.record(settle.Result{Settled: true, Bet: 5, Win: true, Winnings: 5})
	st.record(settle.Result{Settled: true, Bet: 5})
	st.record(settle.Result{Settled: true, Bet: 5})

	got := st.snapshot(95).WinRate
	if want := decimal.RequireFromString("33.33"); !got.Equal(want) {
		t.Errorf("win rate = %s, want %s", got, want)
	}
}
