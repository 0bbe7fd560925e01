// Package strategy plays a session automatically. A Strategy decides the
// next bet; the Runner turns that decision into the same intents a human
// player would send.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// State is what a strategy sees before each round.
type State struct {
	Balance   int
	Bet       int
	MinBet    int
	Increment int
	Rounds    int
	Wins      int
	Losses    int
	Profit    int

	// Last is nil before the first round.
	Last *Result
}

// Result summarises a settled round.
type Result struct {
	Number   int
	Color    wheel.Color
	Bet      int
	Win      bool
	Winnings int
}

// Decision is the next bet. A zero Amount keeps the current bet.
type Decision struct {
	Amount    int
	Selection ledger.Selection
	Stop      bool
}

// Strategy chooses bets.
type Strategy interface {
	Name() string
	Next(st State) (Decision, error)
}

type flat struct {
	color wheel.Color
}

// Flat always bets the minimum on one colour.
func Flat(c wheel.Color) Strategy { return flat{color: c} }

func (f flat) Name() string { return "flat" }

func (f flat) Next(st State) (Decision, error) {
	return Decision{Amount: st.MinBet, Selection: ledger.OnColor(f.color)}, nil
}

type martingale struct {
	color wheel.Color
}

// Martingale doubles the stake on a colour after every loss and returns to
// the minimum after a win.
func Martingale(c wheel.Color) Strategy { return martingale{color: c} }

func (m martingale) Name() string { return "martingale" }

func (m martingale) Next(st State) (Decision, error) {
	amount := st.MinBet
	if st.Last != nil && !st.Last.Win {
		amount = st.Last.Bet * 2
	}
	return Decision{Amount: amount, Selection: ledger.OnColor(m.color)}, nil
}

type dalembert struct {
	color wheel.Color
}

// DAlembert raises the stake one increment after a loss and lowers it one
// increment after a win.
func DAlembert(c wheel.Color) Strategy { return dalembert{color: c} }

func (d dalembert) Name() string { return "dalembert" }

func (d dalembert) Next(st State) (Decision, error) {
	amount := st.MinBet
	if st.Last != nil {
		amount = st.Last.Bet
		if st.Last.Win {
			amount -= st.Increment
		} else {
			amount += st.Increment
		}
	}
	return Decision{Amount: max(amount, st.MinBet), Selection: ledger.OnColor(d.color)}, nil
}

type straightUp struct {
	number int
}

// StraightUp bets the minimum on a single number.
func StraightUp(n int) Strategy { return straightUp{number: n} }

func (s straightUp) Name() string { return "number" }

func (s straightUp) Next(st State) (Decision, error) {
	return Decision{Amount: st.MinBet, Selection: ledger.OnNumber(s.number)}, nil
}

var builtins = map[string]func() Strategy{
	"flat":       func() Strategy { return Flat(wheel.Red) },
	"martingale": func() Strategy { return Martingale(wheel.Red) },
	"dalembert":  func() Strategy { return DAlembert(wheel.Red) },
	"number":     func() Strategy { return StraightUp(17) },
}

// Builtin returns the named built-in strategy.
func Builtin(name string) (Strategy, error) {
	mk, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return mk(), nil
}

// Names lists the built-in strategies.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
